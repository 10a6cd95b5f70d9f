package party

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrRoundNotFound  = errors.New("round not found")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomCodeTaken  = errors.New("room code already in use")
	ErrRoundExists    = errors.New("round already exists")
	ErrCodeExhausted  = errors.New("could not generate a unique room code")
	ErrValidation     = errors.New("invalid request")
)

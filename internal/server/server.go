// Package server exposes the party and daily services over a polled REST
// API. There is no push transport: clients observe state by re-fetching
// the game-info snapshot.
package server

import (
	"net/http"
	"time"

	"shade/internal/config"
	"shade/internal/daily"
	"shade/internal/party"

	"github.com/go-playground/validator/v10"
)

type Server struct {
	party    *party.Service
	daily    *daily.Service
	cfg      config.Config
	limiter  *rateLimiter
	validate *validator.Validate
}

func New(partySvc *party.Service, dailySvc *daily.Service, cfg config.Config) *Server {
	return &Server{
		party:    partySvc,
		daily:    dailySvc,
		cfg:      cfg,
		limiter:  newRateLimiter(10, time.Minute),
		validate: validator.New(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/party/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/party/rooms/{code}", s.handleGetRoom)
	mux.HandleFunc("DELETE /api/party/rooms/{code}", s.handleDeactivateRoom)
	mux.HandleFunc("GET /api/party/rooms/{code}/game-info", s.handleGameInfo)

	mux.HandleFunc("POST /api/party/rooms/{code}/join", s.handleJoin)
	mux.HandleFunc("POST /api/party/rooms/{code}/leave", s.handleLeave)
	mux.HandleFunc("GET /api/party/rooms/{code}/players", s.handleListPlayers)
	mux.HandleFunc("PUT /api/party/rooms/{code}/players/{player}", s.handleUpdatePlayer)
	mux.HandleFunc("DELETE /api/party/rooms/{code}/players/{player}", s.handleRemovePlayer)

	mux.HandleFunc("POST /api/party/rooms/{code}/game-type", s.handleSelectGameType)
	mux.HandleFunc("POST /api/party/rooms/{code}/target-color", s.handleSetTargetColor)
	mux.HandleFunc("POST /api/party/rooms/{code}/rounds/start", s.handleStartRound)
	mux.HandleFunc("POST /api/party/rooms/{code}/rounds/end", s.handleEndRound)
	mux.HandleFunc("GET /api/party/rooms/{code}/rounds", s.handleListRounds)
	mux.HandleFunc("POST /api/party/rooms/{code}/continue", s.handleContinueSession)
	mux.HandleFunc("POST /api/party/rooms/{code}/end-session", s.handleEndSession)
	mux.HandleFunc("POST /api/party/rooms/{code}/extend-time", s.handleExtendTime)

	mux.HandleFunc("POST /api/party/rooms/{code}/scores", s.handleSubmitScore)
	mux.HandleFunc("GET /api/party/rooms/{code}/scores", s.handleListScores)
	mux.HandleFunc("GET /api/party/rooms/{code}/leaderboard", s.handleLeaderboard)

	mux.HandleFunc("POST /api/party/cleanup", s.handleCleanup)

	mux.HandleFunc("POST /api/daily/attempts", s.handleDailyAttempt)
	mux.HandleFunc("GET /api/daily/leaderboard", s.handleDailyLeaderboard)
	mux.HandleFunc("GET /api/daily/streak", s.handleDailyStreak)

	mux.HandleFunc("GET /api/admin/export-leaderboard", s.handleExportLeaderboard)

	return requestLog(mux)
}

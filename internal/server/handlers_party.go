package server

import (
	"net/http"
	"strconv"

	"shade/internal/party"
)

type createRoomRequest struct {
	HostID      string `json:"hostId" validate:"required,max=64"`
	HostName    string `json:"hostName" validate:"required,max=64"`
	MaxPlayers  int    `json:"maxPlayers" validate:"omitempty,min=2,max=16"`
	MaxRounds   int    `json:"maxRounds" validate:"omitempty,min=1,max=20"`
	GuessTime   int    `json:"guessTime" validate:"omitempty,min=5,max=300"`
	TargetColor string `json:"targetColor" validate:"omitempty,hexcolor"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.allow(clientIP(r)) {
		writeError(w, http.StatusTooManyRequests, "too many rooms created, slow down")
		return
	}
	var req createRoomRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := s.party.CreateRoom(r.Context(), req.HostID, req.HostName, party.RoomOptions{
		MaxPlayers:  req.MaxPlayers,
		MaxRounds:   req.MaxRounds,
		GuessTime:   req.GuessTime,
		TargetColor: req.TargetColor,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

type roomResponse struct {
	Code         string `json:"code"`
	HostID       string `json:"hostId"`
	HostName     string `json:"hostName"`
	MaxPlayers   int    `json:"maxPlayers"`
	MaxRounds    int    `json:"maxRounds"`
	GuessTime    int    `json:"guessTime"`
	CurrentRound int    `json:"currentRound"`
	GameState    string `json:"gameState"`
	GameType     string `json:"gameType,omitempty"`
	TargetColor  string `json:"targetColor,omitempty"`
	IsActive     bool   `json:"isActive"`
	CreatedAt    int64  `json:"createdAt"`
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.party.Room(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roomResponse{
		Code:         room.Code,
		HostID:       room.HostID,
		HostName:     room.HostName,
		MaxPlayers:   room.MaxPlayers,
		MaxRounds:    room.MaxRounds,
		GuessTime:    room.GuessTime,
		CurrentRound: room.CurrentRound,
		GameState:    room.GameState,
		GameType:     room.GameType,
		TargetColor:  room.TargetColor,
		IsActive:     room.IsActive,
		CreatedAt:    room.CreatedAt.UnixMilli(),
	})
}

func (s *Server) handleDeactivateRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.party.DeactivateRoom(r.Context(), r.PathValue("code")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deactivated": true})
}

func (s *Server) handleGameInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.party.GameInfo(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type joinRequest struct {
	PlayerID   string `json:"playerId" validate:"required,max=64"`
	PlayerName string `json:"playerName" validate:"required,max=64"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := s.party.Join(r.Context(), r.PathValue("code"), req.PlayerID, req.PlayerName)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type leaveRequest struct {
	PlayerID string `json:"playerId" validate:"required,max=64"`
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := s.party.Leave(r.Context(), r.PathValue("code"), req.PlayerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if info == nil {
		// Last player out closes the room.
		writeJSON(w, http.StatusOK, map[string]bool{"roomClosed": true})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type playerResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Score        int     `json:"score"`
	Attempts     int     `json:"attempts"`
	BestScore    int     `json:"bestScore"`
	SessionScore float64 `json:"sessionScore"`
	RoundScores  []int   `json:"roundScores"`
	JoinedAt     int64   `json:"joinedAt"`
	LastSeen     int64   `json:"lastSeen"`
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.party.Players(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]playerResponse, 0, len(players))
	for _, p := range players {
		out = append(out, playerResponse{
			ID:           p.ID,
			Name:         p.Name,
			Score:        p.Score,
			Attempts:     p.Attempts,
			BestScore:    p.BestScore,
			SessionScore: p.SessionScore,
			RoundScores:  p.RoundScores,
			JoinedAt:     p.JoinedAt.UnixMilli(),
			LastSeen:     p.LastSeen.UnixMilli(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": out})
}

type updatePlayerRequest struct {
	Name      string `json:"name" validate:"omitempty,max=64"`
	Heartbeat bool   `json:"heartbeat"`
}

func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var req updatePlayerRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	code, player := r.PathValue("code"), r.PathValue("player")
	if req.Name != "" {
		info, err := s.party.RenamePlayer(r.Context(), code, player, req.Name)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
		return
	}
	if err := s.party.Heartbeat(r.Context(), code, player); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	info, err := s.party.Leave(r.Context(), r.PathValue("code"), r.PathValue("player"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if info == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"roomClosed": true})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type gameTypeRequest struct {
	GameType string `json:"gameType" validate:"required,oneof=findColor colorMixing"`
}

func (s *Server) handleSelectGameType(w http.ResponseWriter, r *http.Request) {
	var req gameTypeRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := s.party.SelectGameType(r.Context(), r.PathValue("code"), req.GameType)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type targetColorRequest struct {
	TargetColor string `json:"targetColor" validate:"required,hexcolor"`
}

func (s *Server) handleSetTargetColor(w http.ResponseWriter, r *http.Request) {
	var req targetColorRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := s.party.SetTargetColor(r.Context(), r.PathValue("code"), req.TargetColor)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	info, err := s.party.StartRound(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleEndRound(w http.ResponseWriter, r *http.Request) {
	info, err := s.party.EndRound(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type roundResponse struct {
	Number        int                 `json:"number"`
	GameType      string              `json:"gameType"`
	DennerID      string              `json:"dennerId"`
	DennerName    string              `json:"dennerName"`
	TargetColor   string              `json:"targetColor"`
	GuessTime     int                 `json:"guessTime"`
	StartTime     int64               `json:"startTime"`
	EndTime       *int64              `json:"endTime"`
	IsCompleted   bool                `json:"isCompleted"`
	PlayerResults []party.RoundResult `json:"playerResults"`
}

func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := s.party.Rounds(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]roundResponse, 0, len(rounds))
	for _, round := range rounds {
		resp := roundResponse{
			Number:        round.Number,
			GameType:      round.GameType,
			DennerID:      round.DennerID,
			DennerName:    round.DennerName,
			TargetColor:   round.TargetColor,
			GuessTime:     round.GuessTime,
			StartTime:     round.StartTime.UnixMilli(),
			IsCompleted:   round.IsCompleted,
			PlayerResults: round.PlayerResults,
		}
		if round.EndTime != nil {
			ms := round.EndTime.UnixMilli()
			resp.EndTime = &ms
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, map[string]any{"rounds": out})
}

func (s *Server) handleContinueSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.party.ContinueSession(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.party.EndSession(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type extendTimeRequest struct {
	ExtraSeconds int `json:"extraSeconds" validate:"omitempty,min=1,max=300"`
}

func (s *Server) handleExtendTime(w http.ResponseWriter, r *http.Request) {
	var req extendTimeRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := s.party.ExtendTime(r.Context(), r.PathValue("code"), req.ExtraSeconds)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type submitScoreRequest struct {
	PlayerID      string   `json:"playerId" validate:"required,max=64"`
	PlayerName    string   `json:"playerName" validate:"required,max=64"`
	Score         int      `json:"score" validate:"min=0,max=100"`
	TimeTaken     float64  `json:"timeTaken" validate:"min=0"`
	CapturedColor string   `json:"capturedColor" validate:"omitempty,hexcolor"`
	Similarity    *float64 `json:"similarity" validate:"omitempty"`
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := s.party.SubmitScore(r.Context(), r.PathValue("code"), party.ScoreSubmission{
		PlayerID:      req.PlayerID,
		PlayerName:    req.PlayerName,
		Score:         req.Score,
		TimeTaken:     req.TimeTaken,
		CapturedColor: req.CapturedColor,
		Similarity:    req.Similarity,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type scoreResponse struct {
	RoundNumber   int      `json:"roundNumber"`
	PlayerID      string   `json:"playerId"`
	PlayerName    string   `json:"playerName"`
	Score         int      `json:"score"`
	TimeTaken     float64  `json:"timeTaken"`
	TargetColor   string   `json:"targetColor"`
	CapturedColor string   `json:"capturedColor,omitempty"`
	Similarity    *float64 `json:"similarity,omitempty"`
	GameType      string   `json:"gameType"`
	SubmittedAt   int64    `json:"submittedAt"`
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	roundNumber := 0
	if raw := r.URL.Query().Get("round"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 {
			writeError(w, http.StatusBadRequest, "round must be a positive integer")
			return
		}
		roundNumber = value
	}
	scores, err := s.party.Scores(r.Context(), r.PathValue("code"), roundNumber)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]scoreResponse, 0, len(scores))
	for _, score := range scores {
		out = append(out, scoreResponse{
			RoundNumber:   score.RoundNumber,
			PlayerID:      score.PlayerID,
			PlayerName:    score.PlayerName,
			Score:         score.Score,
			TimeTaken:     score.TimeTaken,
			TargetColor:   score.TargetColor,
			CapturedColor: score.CapturedColor,
			Similarity:    score.Similarity,
			GameType:      score.GameType,
			SubmittedAt:   score.SubmittedAt.UnixMilli(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"scores": out})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.party.Leaderboard(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	result, err := s.party.CleanupInactive(r.Context(), s.cfg.CleanupRoomHours, s.cfg.CleanupPlayerHours)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

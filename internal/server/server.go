package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"dynasty-tracker/internal/api"
	"dynasty-tracker/internal/domain"
	"dynasty-tracker/internal/service"

	"github.com/rs/zerolog"
)

// Server carries the HTTP handlers over the service layer. Route patterns
// use method-qualified ServeMux matching.
type Server struct {
	rosters   *service.RosterService
	contracts *service.ContractService
	sleeper   *service.SleeperService
	config    *service.LeagueConfigService
	upstream  *api.SleeperClient
	logger    zerolog.Logger
}

func New(
	rosters *service.RosterService,
	contracts *service.ContractService,
	sleeper *service.SleeperService,
	config *service.LeagueConfigService,
	upstream *api.SleeperClient,
	logger zerolog.Logger,
) *Server {
	return &Server{
		rosters:   rosters,
		contracts: contracts,
		sleeper:   sleeper,
		config:    config,
		upstream:  upstream,
		logger:    logger,
	}
}

// Register mounts every route on the mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/rosters/{leagueID}/{userID}", s.handleGetRosters)
	mux.HandleFunc("GET /api/leagues/{leagueID}/chain", s.handleGetChain)
	mux.HandleFunc("GET /api/leagues/{leagueID}/config", s.handleGetConfig)
	mux.HandleFunc("PUT /api/leagues/{leagueID}/config", s.handlePutConfig)
	mux.HandleFunc("POST /api/contracts", s.handleAddContract)
	mux.HandleFunc("GET /api/leagues/{leagueID}/contracts", s.handleListContracts)
	mux.HandleFunc("GET /api/leagues/{leagueID}/players/{playerID}/history", s.handleContractHistory)
	mux.HandleFunc("POST /api/actions/{kind}", s.handleApplyAction)
	mux.HandleFunc("DELETE /api/actions/{kind}", s.handleRevokeAction)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"rate_limit": s.upstream.GetRateLimitInfo(),
	})
}

func (s *Server) handleGetRosters(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	userID := r.PathValue("userID")

	response, err := s.rosters.GetRosterResponse(r.Context(), leagueID, userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetChain(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	chain := s.sleeper.ResolveChain(r.Context(), leagueID)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"league_id":          leagueID,
		"league_chain":       chain,
		"original_league_id": chain[len(chain)-1],
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.config.Get(r.Context(), r.PathValue("leagueID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg domain.LeagueConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeBadRequest(w, "invalid config payload")
		return
	}
	stored, err := s.config.Set(r.Context(), r.PathValue("leagueID"), cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stored)
}

type contractRequest struct {
	LeagueID string `json:"league_id"`
	PlayerID string `json:"player_id"`
	TeamID   int    `json:"team_id"`
	Length   int    `json:"length"`
}

func (s *Server) handleAddContract(w http.ResponseWriter, r *http.Request) {
	var req contractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid contract payload")
		return
	}
	if req.LeagueID == "" || req.PlayerID == "" {
		s.writeBadRequest(w, "league_id and player_id are required")
		return
	}

	info, err := s.contracts.AddContract(r.Context(), req.LeagueID, req.PlayerID, req.TeamID, req.Length)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListContracts(w http.ResponseWriter, r *http.Request) {
	leagueID := r.PathValue("leagueID")
	playerID := r.URL.Query().Get("player_id")
	activeOnly := r.URL.Query().Get("active") == "true"

	infos, err := s.contracts.Contracts(r.Context(), leagueID, playerID, activeOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"league_id": leagueID,
		"contracts": infos,
	})
}

func (s *Server) handleContractHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.contracts.History(r.Context(), r.PathValue("leagueID"), r.PathValue("playerID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}

type actionRequest struct {
	LeagueID string `json:"league_id"`
	PlayerID string `json:"player_id"`
	TeamID   int    `json:"team_id"`
	Length   int    `json:"length"`
}

func (s *Server) handleApplyAction(w http.ResponseWriter, r *http.Request) {
	kind := domain.ActionKind(r.PathValue("kind"))
	if !kind.Valid() {
		s.writeBadRequest(w, "unknown action kind")
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid action payload")
		return
	}
	if req.LeagueID == "" || req.PlayerID == "" {
		s.writeBadRequest(w, "league_id and player_id are required")
		return
	}

	action, err := s.contracts.ApplyAction(r.Context(), kind, req.LeagueID, req.PlayerID, req.TeamID, req.Length)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, action)
}

func (s *Server) handleRevokeAction(w http.ResponseWriter, r *http.Request) {
	kind := domain.ActionKind(r.PathValue("kind"))
	if !kind.Valid() {
		s.writeBadRequest(w, "unknown action kind")
		return
	}

	leagueID := r.URL.Query().Get("league_id")
	playerID := r.URL.Query().Get("player_id")
	if leagueID == "" || playerID == "" {
		s.writeBadRequest(w, "league_id and player_id are required")
		return
	}

	if err := s.contracts.RevokeAction(r.Context(), kind, leagueID, playerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		s.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

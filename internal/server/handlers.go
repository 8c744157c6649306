package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bulknepal/bulknepal/internal/auth"
	"github.com/bulknepal/bulknepal/internal/market"
	"github.com/bulknepal/bulknepal/internal/nepse"
	"github.com/bulknepal/bulknepal/internal/stream"
)

// Market is the upstream proxy surface the handlers depend on.
type Market interface {
	MarketStatus(ctx context.Context) (market.Status, error)
	HomePage(ctx context.Context) (*market.Snapshot, error)
	Offerings(ctx context.Context, q market.OfferingQuery) ([]market.Offering, error)
}

// Verifier introspects a Google ID token into a profile.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*auth.Profile, error)
}

type Server struct {
	markets  Market
	verifier Verifier
	signer   *auth.Signer
	hub      *stream.Hub
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewServer wires the handler dependencies. hub and limiter may be nil to
// disable the stream route and inbound rate limiting respectively.
func NewServer(markets Market, verifier Verifier, signer *auth.Signer, hub *stream.Hub, limiter *rate.Limiter, logger *zap.Logger) *Server {
	return &Server{
		markets:  markets,
		verifier: verifier,
		signer:   signer,
		hub:      hub,
		limiter:  limiter,
		logger:   logger,
	}
}

// envelope is the uniform response shape of every route.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Message: msg})
}

// upstreamMessage keeps the upstream's own failure message when one exists.
func upstreamMessage(err error) string {
	if ue, ok := nepse.AsUpstream(err); ok {
		return ue.Message
	}
	return "Unknown error"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "BulkNepal API is running..")
}

func (s *Server) handleMarketStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.markets.MarketStatus(r.Context())
	if err != nil {
		s.logger.Warn("market status fetch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, upstreamMessage(err))
		return
	}
	writeData(w, http.StatusOK, status)
}

func (s *Server) handleMarketIndices(w http.ResponseWriter, r *http.Request) {
	snap, err := s.markets.HomePage(r.Context())
	if err != nil {
		s.logger.Warn("live indices fetch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, upstreamMessage(err))
		return
	}
	writeData(w, http.StatusOK, snap)
}

// offeringRequest mirrors the body the dashboard sends alongside the
// category path segment.
type offeringRequest struct {
	PageSize int `json:"pageSize"`
	Type     int `json:"type"`
	ForValue int `json:"forValue"`
}

func (s *Server) handleOfferings(w http.ResponseWriter, r *http.Request) {
	var body offeringRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	q := market.OfferingQuery{PageSize: body.PageSize, Type: body.Type, ForValue: body.ForValue}
	if q.PageSize == 0 {
		// No explicit tuple in the body; derive it from the category segment.
		q = market.CategoryQuery(chi.URLParam(r, "category"))
	}

	offerings, err := s.markets.Offerings(r.Context(), q)
	if err != nil {
		s.logger.Warn("offerings fetch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, upstreamMessage(err))
		return
	}
	writeData(w, http.StatusOK, offerings)
}

type loginRequest struct {
	IDToken string `json:"idToken"`
}

type loginResponse struct {
	Token string        `json:"token"`
	User  *auth.Profile `json:"user"`
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.IDToken == "" {
		writeError(w, http.StatusBadRequest, "Missing idToken")
		return
	}

	profile, err := s.verifier.Verify(r.Context(), body.IDToken)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrMissingToken):
		writeError(w, http.StatusBadRequest, "Missing idToken")
		return
	case errors.Is(err, auth.ErrAudienceMismatch):
		writeError(w, http.StatusUnauthorized, "ID token audience mismatch")
		return
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Invalid ID token")
		return
	default:
		s.logger.Error("google auth error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error verifying ID token")
		return
	}

	token, err := s.signer.Sign(profile)
	if err != nil {
		s.logger.Error("session token signing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error verifying ID token")
		return
	}

	writeData(w, http.StatusOK, loginResponse{Token: token, User: profile})
}

// handleMe echoes the profile embedded in the presented session token.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Token is not valid")
		return
	}
	writeData(w, http.StatusOK, profile)
}

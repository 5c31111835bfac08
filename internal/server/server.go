// Package server exposes the chat logger over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ppiankov/carbontally/internal/ledger"
	"github.com/ppiankov/carbontally/internal/model"
	"github.com/ppiankov/carbontally/internal/pipeline"
	"github.com/ppiankov/carbontally/internal/worker"
)

// CookieName holds the anonymous user id
const CookieName = "carbontally_uid"

// maxBodyBytes bounds a chat request body
const maxBodyBytes = 64 << 10

// Server serves the chat page and JSON API
type Server struct {
	pipeline *pipeline.Pipeline
	limiter  *worker.Limiter
	cfg      model.LedgerConfig
	mux      *http.ServeMux
}

// New creates a server. A nil limiter disables rate limiting.
func New(p *pipeline.Pipeline, limiter *worker.Limiter, cfg model.LedgerConfig) *Server {
	if limiter == nil {
		limiter = worker.NewLimiter(0, 1)
	}

	s := &Server{pipeline: p, limiter: limiter, cfg: cfg, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("POST /name", s.handleName)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("GET /leaderboard", s.handleLeaderboard)
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	log.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Dur("took", time.Since(start)).
		Msg("request")
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	OK         bool                   `json:"ok"`
	Message    string                 `json:"message"`
	Reply      string                 `json:"reply"`
	CO2        float64                `json:"co2"`
	TotalCO2   float64                `json:"total_co2"`
	Activities []model.ParsedActivity `json:"activities"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ensureUser(w, r); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, known := s.cookieUser(w, r)

	// Rate limit before touching the ledger. Callers without a valid cookie
	// share a bucket per remote address, otherwise each would get a fresh one
	key := userID
	if !known {
		key = remoteKey(r)
	}
	if err := s.limiter.Check(key); err != nil {
		writeError(w, http.StatusTooManyRequests, "Too many requests. Try again in a second.")
		return
	}

	var req chatRequest
	// An empty body is an empty prompt
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.pipeline.Log(r.Context(), userID, req.Prompt)
	if errors.Is(err, pipeline.ErrEmptyPrompt) {
		writeError(w, http.StatusBadRequest, "Empty prompt")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("chat failed")
		writeError(w, http.StatusInternalServerError, "Could not record activity")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		OK:         true,
		Message:    res.Message,
		Reply:      res.Reply,
		CO2:        res.Delta,
		TotalCO2:   res.Total,
		Activities: res.Activities,
	})
}

func (s *Server) handleName(w http.ResponseWriter, r *http.Request) {
	userID, err := s.ensureUser(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.pipeline.Ledger().Rename(r.Context(), userID, req.Name); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeStats(w, r, userID)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := s.ensureUser(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entries, err := s.pipeline.Ledger().History(r.Context(), userID, s.cfg.HistoryLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []model.LogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, err := s.ensureUser(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeStats(w, r, userID)
}

func (s *Server) writeStats(w http.ResponseWriter, r *http.Request, userID string) {
	st, err := s.pipeline.Ledger().Stats(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statsView(st))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.pipeline.Ledger().Leaderboard(r.Context(), s.cfg.LeaderboardSz)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if board == nil {
		board = []model.LeaderboardRow{}
	}
	writeJSON(w, http.StatusOK, board)
}

// userID returns the caller's id from the cookie, issuing a new one if
// missing or malformed
func (s *Server) userID(w http.ResponseWriter, r *http.Request) string {
	id, _ := s.cookieUser(w, r)
	return id
}

// cookieUser is userID that also reports whether the id came from a valid cookie
func (s *Server) cookieUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	if c, err := r.Cookie(CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value, true
		}
	}

	id := ledger.NewUserID()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   365 * 24 * 60 * 60,
	})
	return id, false
}

// remoteKey is the rate limit key of a caller without a cookie
func remoteKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

func (s *Server) ensureUser(w http.ResponseWriter, r *http.Request) (string, error) {
	id := s.userID(w, r)
	if _, err := s.pipeline.Ledger().EnsureUser(r.Context(), id); err != nil {
		return "", fmt.Errorf("ensure user: %w", err)
	}
	return id, nil
}

// userView mirrors the stats payload of the chat page
type userView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	CreatedAt  string  `json:"created_at"`
	TotalCO2   float64 `json:"total_co2"`
	Entries    int     `json:"entries"`
	EmittedCO2 float64 `json:"emitted_co2"`
	SavedCO2   float64 `json:"saved_co2"`
}

func statsView(st model.Stats) userView {
	return userView{
		ID:         st.User.ID,
		Name:       st.User.DisplayName(),
		CreatedAt:  st.User.CreatedAt.Format(time.RFC3339),
		TotalCO2:   st.User.TotalCO2,
		Entries:    st.Entries,
		EmittedCO2: st.EmittedCO2,
		SavedCO2:   st.SavedCO2,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{OK: false, Error: msg})
}

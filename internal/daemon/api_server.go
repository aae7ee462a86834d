package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"reelpost/internal/api"
	"reelpost/internal/catalog"
	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/services"
)

const defaultListLimit = 50

// statusSource is the daemon surface the API reads.
type statusSource interface {
	Status(ctx context.Context) (Status, error)
}

// movieSource is the catalog surface the API reads.
type movieSource interface {
	GetByKey(ctx context.Context, key string) (*catalog.Movie, error)
	GetByGroupID(ctx context.Context, groupID string) (*catalog.Movie, error)
	List(ctx context.Context, limit int) ([]*catalog.Movie, error)
}

type apiServer struct {
	bind     string
	logger   *slog.Logger
	status   statusSource
	movies   movieSource
	deepLink func(string) string
	waitSecs int
	workers  int

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	srv := &apiServer{
		bind:     bind,
		logger:   logging.NewComponentLogger(logger, "api"),
		status:   d,
		movies:   d.store,
		deepLink: cfg.DeepLink,
		waitSecs: cfg.Grouping.WaitSeconds,
		workers:  cfg.Grouping.Workers,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID, authMiddleware(strings.TrimSpace(token)))
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/movies", s.handleMovies).Methods(http.MethodGet)
	r.HandleFunc("/api/movies/{key}", s.handleMovie).Methods(http.MethodGet)
	r.HandleFunc("/api/groups/{groupID}", s.handleGroup).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *apiServer) address() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.status.Status(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		WaitSeconds:  s.waitSecs,
		Workers:      s.workers,
		Pending:      status.Pending,
		InFlight:     status.InFlight,
		PollOffset:   status.PollOffset,
		StoreDriver:  status.StoreDriver,
		StoreTarget:  status.StoreTarget,
		LockFilePath: status.LockFilePath,
		Catalog:      api.FromStats(status.Catalog),
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
		payload.UptimeSeconds = int64(time.Since(status.StartedAt).Seconds())
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleMovies(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	movies, err := s.movies.List(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := api.MovieListResponse{Movies: make([]api.Movie, 0, len(movies))}
	for _, movie := range movies {
		resp.Movies = append(resp.Movies, api.FromMovie(movie, s.deepLink))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleMovie(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(mux.Vars(r)["key"])
	movie, err := s.movies.GetByKey(r.Context(), key)
	s.writeMovie(w, r, movie, err, "movie not found")
}

func (s *apiServer) handleGroup(w http.ResponseWriter, r *http.Request) {
	groupID := strings.TrimSpace(mux.Vars(r)["groupID"])
	movie, err := s.movies.GetByGroupID(r.Context(), groupID)
	s.writeMovie(w, r, movie, err, "group not found")
}

func (s *apiServer) writeMovie(w http.ResponseWriter, r *http.Request, movie *catalog.Movie, err error, missing string) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if movie == nil {
		writeError(w, http.StatusNotFound, missing)
		return
	}
	writeJSON(w, http.StatusOK, api.FromMovie(movie, s.deepLink))
}

func (s *apiServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	}
	logging.WithContext(r.Context(), s.logger).Warn("api request failed",
		logging.String("path", r.URL.Path),
		logging.Int("status", status),
		logging.Error(err),
		logging.ErrorKind(err),
	)
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}

package web

import (
	"context"
	"net/http"
	"sync"

	"leftasrain/internal/config"
	"leftasrain/internal/leftasrain"
	"leftasrain/internal/logger"
	"leftasrain/internal/metrics"
)

// Server exposes the song cache over HTTP. The client is not safe for
// concurrent use, so every access goes through mu.
type Server struct {
	ctx    context.Context
	mu     sync.Mutex
	client *leftasrain.Client
	jobMgr *JobManager
	config config.Config
	logger *logger.Logger
}

func NewServer(ctx context.Context, client *leftasrain.Client, jobMgr *JobManager, cfg config.Config, log *logger.Logger) *Server {
	return &Server{
		ctx:    ctx,
		client: client,
		jobMgr: jobMgr,
		config: cfg,
		logger: log,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/total", s.handleTotal)
	mux.HandleFunc("/api/tracks", s.handleListTracks)
	mux.HandleFunc("/api/tracks/", s.handleTrack)
	mux.HandleFunc("/api/lookup", s.handleLookup)
	mux.HandleFunc("/api/sync", s.handleSync)
	mux.HandleFunc("/api/jobs", s.handleListJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobAction)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", metrics.Handler())

	return s.loggingMiddleware(mux)
}

// SaveDB writes the song cache to disk.
func (s *Server) SaveDB() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.SaveDB()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

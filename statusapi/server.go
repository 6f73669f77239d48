// Package statusapi is a small read-only HTTP surface over a running
// scheduler.SuiteScheduler, for operators who want to poll progress
// without tailing logs. It only calls the scheduler's public getters —
// Results(), Rebooted(), Running() — never its internals, and it never
// mutates scheduler state.
package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"kirk/data"
	"kirk/logging"
	"kirk/scheduler"
)

// SchedulerView is the subset of *scheduler.SuiteScheduler the status API
// depends on, so it can be exercised against a fake in tests.
type SchedulerView interface {
	Results() []data.SuiteResult
	Rebooted() int
	Running() bool
}

var _ SchedulerView = (*scheduler.SuiteScheduler)(nil)

// Server serves GET-only status and results endpoints over a running
// SuiteScheduler.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	logger     logging.Logger
	sched      SchedulerView
	startedAt  time.Time
}

// NewServer builds a Server bound to addr (e.g. ":8080") reporting on
// sched.
func NewServer(addr string, sched SchedulerView, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoopLogger{}
	}

	router := mux.NewRouter()
	s := &Server{
		router:    router,
		logger:    logger,
		sched:     sched,
		startedAt: time.Now(),
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
	}

	s.setupRoutes()
	s.router.Use(s.loggingMiddleware)
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/results", s.handleResults).Methods(http.MethodGet)
	s.router.HandleFunc("/results/{suite}", s.handleSuiteResult).Methods(http.MethodGet)
}

// Start begins serving and blocks until the server is shut down or fails.
func (s *Server) Start() error {
	s.logger.Info("status api starting", logging.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// statusResponse is the payload of GET /status.
type statusResponse struct {
	Running        bool          `json:"running"`
	Rebooted       int           `json:"rebooted"`
	SuitesReported int           `json:"suites_reported"`
	Uptime         time.Duration `json:"uptime"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Running:        s.sched.Running(),
		Rebooted:       s.sched.Rebooted(),
		SuitesReported: len(s.sched.Results()),
		Uptime:         time.Since(s.startedAt),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Results())
}

func (s *Server) handleSuiteResult(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["suite"]
	for _, res := range s.sched.Results() {
		if res.Suite.Name == name {
			writeJSON(w, http.StatusOK, res)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "suite not reported: " + name})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

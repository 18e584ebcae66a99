package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/wodlog/internal/backup"
	"github.com/claude/wodlog/internal/ingest/board"
	"github.com/claude/wodlog/internal/ingest/fitfile"
	"github.com/claude/wodlog/internal/tracker"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	tracker *tracker.Tracker
	board   *board.Provider
	fit     *fitfile.Provider
	backups *backup.Scheduler
	topN    int
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a new Server with all routes configured. topN is the
// ranking length of the performance endpoint.
func New(t *tracker.Tracker, boardProvider *board.Provider, fitProvider *fitfile.Provider, apiKey string, topN int, log *slog.Logger) *Server {
	s := &Server{
		tracker: t,
		board:   boardProvider,
		fit:     fitProvider,
		topN:    topN,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetBackups enables the on-demand snapshot endpoint.
func (s *Server) SetBackups(b *backup.Scheduler) {
	s.backups = b
}

// MountMCP serves an MCP handler at /mcp behind the API key.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(APIKeyAuth(s.apiKey)).Handle("/mcp", h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(Metrics)
	s.router.Use(CORS)

	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		// Read endpoints
		r.Get("/catalog", s.handleCatalog)
		r.Get("/catalog/{id}", s.handleCatalogExercise)
		r.Get("/profile", s.handleGetProfile)
		r.Get("/maxes", s.handleMaxes)
		r.Get("/maxes/{exercise}/history", s.handleMaxHistory)
		r.Get("/calc/weight", s.handleCalcWeight)
		r.Get("/calc/percent", s.handleCalcPercent)
		r.Get("/calc/range", s.handleCalcRange)
		r.Get("/entries", s.handleEntries)
		r.Get("/days/{date}/summary", s.handleDaySummary)
		r.Get("/performance", s.handlePerformance)
		r.Get("/summary/weekly", s.handleWeekly)
		r.Get("/summary/monthly", s.handleMonthly)
		r.Get("/reservations", s.handleReservations)
		r.Get("/backup/meta", s.handleBackupMeta)
		r.Get("/imports", s.handleImportLogs)

		// Mutating endpoints (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Put("/profile", s.handlePutProfile)
			r.Put("/maxes/{exercise}", s.handlePutMax)
			r.Delete("/maxes/{exercise}", s.handleDeleteMax)
			r.Post("/entries", s.handleAddEntry)
			r.Patch("/entries/{index}", s.handleEditEntry)
			r.Delete("/entries/{index}", s.handleDeleteEntry)
			r.Post("/entries/improvement", s.handleAcceptImprovement)
			r.Put("/days/{date}/result", s.handleDayResult)
			r.Post("/ingest/board", s.handleBoardIngest)
			r.Post("/ingest/fit", s.handleFITIngest)
			r.Post("/reservations", s.handleAddReservation)
			r.Delete("/reservations/{id}", s.handleDeleteReservation)
			r.Post("/reservations/{id}/attendance", s.handleAttendance)
			r.Get("/backup", s.handleBackupExport)
			r.Post("/backup", s.handleBackupImport)
			r.Post("/backup/snapshot", s.handleBackupSnapshot)
		})
	})
}

package adapthttp

import (
	"net/http"

	"healthtrack/internal/app"

	"go.uber.org/zap"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	metrics   *app.MetricsService
	reminders *app.ReminderService
	charts    *app.ChartsService
	log       *zap.Logger
}

// New creates a Server wired to the given application services.
func New(ms *app.MetricsService, rs *app.ReminderService, cs *app.ChartsService, log *zap.Logger) *Server {
	return &Server{metrics: ms, reminders: rs, charts: cs, log: log}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/metrics/today", s.handleMetricsToday)
	api.HandleFunc("/goals", s.handleGoals)

	api.HandleFunc("/water/event", s.handleWaterEvent)
	api.HandleFunc("/water/undo-last", s.handleWaterUndoLast)

	api.HandleFunc("/reminders/mode", s.handleReminderMode)
	api.HandleFunc("/reminders/enabled", s.handleReminderEnabled)
	api.HandleFunc("/reminders/pending", s.handleRemindersPending)

	api.HandleFunc("/charts/daily", s.handleChartsDaily)

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return s.loggingMiddleware(withNoCache(root))
}

package adapthttp

import (
	"net/http"

	"healthtrack/internal/domain"
)

func (s *Server) handleMetricsToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap := s.metrics.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"today":     domain.DayKey(snap.LastUpdate),
		"steps":     snap.Steps,
		"calories":  snap.Calories,
		"waterMl":   snap.Water,
		"stepGoal":  snap.StepGoal,
		"waterGoal": snap.WaterGoal,
	})
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		snap := s.metrics.Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"stepGoal":  snap.StepGoal,
			"waterGoal": snap.WaterGoal,
		})

	case http.MethodPost:
		var body struct {
			StepGoal  *float64 `json:"stepGoal"`
			WaterGoal *float64 `json:"waterGoal"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		// Out-of-range goals are clamped, never rejected.
		if body.StepGoal != nil {
			if _, err := s.metrics.SetStepGoal(r.Context(), *body.StepGoal); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
		}
		if body.WaterGoal != nil {
			if _, err := s.metrics.SetWaterGoal(r.Context(), *body.WaterGoal); err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
		}
		snap := s.metrics.Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"stepGoal":  snap.StepGoal,
			"waterGoal": snap.WaterGoal,
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

package adapthttp

import "net/http"

func (s *Server) handleChartsDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	days := intQuery(r, "days", 7)
	points := s.charts.GetDaily(r.Context(), days)
	writeJSON(w, http.StatusOK, map[string]any{"points": points})
}

package api

import (
	"github.com/gorilla/mux"
)

// NewRouter wires the read only endpoints. Routes sit on the root router
// so a known path with the wrong method answers 405 rather than 404.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	r.HandleFunc("/api/trades", handler.GetTrades).Methods("GET")
	r.HandleFunc("/api/statistics", handler.GetStatistics).Methods("GET")
	r.HandleFunc("/api/performance/{date}", handler.GetPerformance).Methods("GET")
	r.HandleFunc("/api/risk", handler.GetRisk).Methods("GET")

	return r
}

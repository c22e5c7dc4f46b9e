package http

import (
	"net/http"

	"github.com/brewline/brewline/internal/dataset"
	"github.com/brewline/brewline/internal/engine"
	"github.com/brewline/brewline/internal/observability"
)

// HealthHandler handles GET /health requests.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DatasetResponse describes the loaded dataset.
type DatasetResponse struct {
	LoadID   string `json:"load_id"`
	FactRows int    `json:"fact_rows"`
	Dates    int    `json:"dates"`
	Times    int    `json:"times"`
	Products int    `json:"products"`
	Stores   int    `json:"stores"`
}

// DatasetHandler handles GET /v1/dataset requests.
type DatasetHandler struct {
	ds *dataset.Dataset
}

// NewDatasetHandler creates a new dataset info handler.
func NewDatasetHandler(ds *dataset.Dataset) *DatasetHandler {
	return &DatasetHandler{ds: ds}
}

func (h *DatasetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", GetRequestID(r.Context()))
		return
	}
	writeJSON(w, http.StatusOK, DatasetResponse{
		LoadID:   h.ds.LoadID,
		FactRows: h.ds.RowCount(),
		Dates:    len(h.ds.Dates),
		Times:    len(h.ds.Times),
		Products: len(h.ds.Products),
		Stores:   len(h.ds.Stores),
	})
}

// StatsResponse reports query usage frequencies.
type StatsResponse struct {
	Operations []observability.UsageStats `json:"operations"`
	Attributes []observability.UsageStats `json:"attributes"`
}

// StatsHandler handles GET /v1/stats requests.
type StatsHandler struct {
	stats *observability.QueryStats
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(stats *observability.QueryStats) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", GetRequestID(r.Context()))
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		Operations: h.stats.TopOperations(20),
		Attributes: h.stats.TopAttributes(20),
	})
}

// NewRouter wires the API handlers behind the default middleware chain.
func NewRouter(eng *engine.Engine, stats *observability.QueryStats) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", HealthHandler)
	mux.Handle("/v1/query", NewQueryHandler(eng))
	mux.Handle("/v1/dataset", NewDatasetHandler(eng.Dataset()))
	mux.Handle("/v1/stats", NewStatsHandler(stats))
	return DefaultMiddleware()(mux)
}

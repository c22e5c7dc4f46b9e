package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/brewline/brewline/internal/calendar"
	"github.com/brewline/brewline/internal/engine"
	"github.com/brewline/brewline/internal/filter"
	"github.com/brewline/brewline/pkg/types"
)

// Query operations accepted by the API.
const (
	OpTotalSales              = "total_sales"
	OpTotalTransactions       = "total_transactions"
	OpAverageTransactionValue = "average_transaction_value"
	OpTopProducts             = "top_products"
	OpMonthOverMonthVariance  = "month_over_month_variance"
)

// ClauseRequest is one attribute restriction in a query filter.
type ClauseRequest struct {
	Attribute string   `json:"attribute"`
	Values    []string `json:"values"`
}

// FilterRequest is the wire form of a query filter.
type FilterRequest struct {
	Clauses []ClauseRequest  `json:"clauses,omitempty"`
	Period  *calendar.Period `json:"period,omitempty"`
}

// MonthRequest names a calendar month for variance queries.
type MonthRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// QueryRequest represents a query request.
type QueryRequest struct {
	Operation string        `json:"operation"`
	Filter    FilterRequest `json:"filter"`

	// N bounds the rank for top_products.
	N int `json:"n,omitempty"`

	// Month and Metric drive month_over_month_variance.
	Month  *MonthRequest `json:"month,omitempty"`
	Metric string        `json:"metric,omitempty"`
}

// QueryResponse represents the query response. Value carries scalar
// results and is null when the metric is undefined; Products is set for
// top_products only.
type QueryResponse struct {
	Operation       string                `json:"operation"`
	Value           *types.Metric         `json:"value,omitempty"`
	Products        []engine.ProductSales `json:"products,omitempty"`
	ExecutionTimeMs int64                 `json:"execution_time_ms"`
	RequestID       string                `json:"request_id"`
}

// QueryHandler handles POST /v1/query requests.
type QueryHandler struct {
	engine *engine.Engine
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(eng *engine.Engine) *QueryHandler {
	return &QueryHandler{engine: eng}
}

// ServeHTTP handles the query HTTP request.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}
	if req.Operation == "" {
		writeError(w, http.StatusBadRequest, "operation is required", requestID)
		return
	}

	f := buildFilter(req.Filter)
	started := time.Now()

	resp := QueryResponse{Operation: req.Operation, RequestID: requestID}
	switch req.Operation {
	case OpTotalSales:
		v := types.Defined(h.engine.TotalSales(f))
		resp.Value = &v

	case OpTotalTransactions:
		v := types.Defined(float64(h.engine.TotalTransactions(f)))
		resp.Value = &v

	case OpAverageTransactionValue:
		v := h.engine.AverageTransactionValue(f)
		resp.Value = &v

	case OpTopProducts:
		resp.Products = h.engine.TopProducts(f, req.N)

	case OpMonthOverMonthVariance:
		if req.Month == nil {
			writeError(w, http.StatusBadRequest, "month is required for month_over_month_variance", requestID)
			return
		}
		metric, err := metricFunc(req.Metric)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), requestID)
			return
		}
		period := calendar.MonthPeriod(req.Month.Year, req.Month.Month)
		if !period.Valid() {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("invalid month: %04d-%02d", req.Month.Year, req.Month.Month), requestID)
			return
		}
		v := h.engine.MonthOverMonthVariance(f, period, metric)
		resp.Value = &v

	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown operation: %s", req.Operation), requestID)
		return
	}

	resp.ExecutionTimeMs = time.Since(started).Milliseconds()
	writeJSON(w, http.StatusOK, resp)
}

// buildFilter translates the wire filter into the engine's filter model.
// Unknown attributes pass through; they compile to an empty match.
func buildFilter(req FilterRequest) filter.Filter {
	f := filter.Filter{Period: req.Period}
	for _, clause := range req.Clauses {
		f.Clauses = append(f.Clauses, filter.Clause{
			Attr:   filter.Attribute(clause.Attribute),
			Values: clause.Values,
		})
	}
	return f
}

func metricFunc(name string) (engine.MetricFunc, error) {
	switch name {
	case "", OpTotalSales:
		return engine.SalesMetric, nil
	case OpTotalTransactions:
		return engine.TransactionsMetric, nil
	case OpAverageTransactionValue:
		return engine.AverageValueMetric, nil
	default:
		return nil, fmt.Errorf("unknown variance metric: %s", name)
	}
}

package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brewline/brewline/internal/dataset"
	"github.com/brewline/brewline/internal/engine"
	"github.com/brewline/brewline/internal/observability"
	"github.com/brewline/brewline/pkg/types"
)

func testEngine(stats *observability.QueryStats) *engine.Engine {
	ds := &dataset.Dataset{
		LoadID: "api-test",
		Facts: []types.FactRecord{
			{TransactionID: 1, DateKey: 20230110, TimeKey: 9, ProductKey: 1, StoreKey: 5, Quantity: 10, UnitPrice: 6.0},
			{TransactionID: 1, DateKey: 20230110, TimeKey: 9, ProductKey: 2, StoreKey: 5, Quantity: 8, UnitPrice: 5.0},
			{TransactionID: 2, DateKey: 20230210, TimeKey: 14, ProductKey: 1, StoreKey: 5, Quantity: 24, UnitPrice: 5.0},
		},
		Dates: map[int]types.DateRow{
			20230110: {Key: 20230110, Year: 2023, Quarter: 1, Month: 1, Day: 10},
			20230210: {Key: 20230210, Year: 2023, Quarter: 1, Month: 2, Day: 10},
		},
		Times: map[int]types.TimeRow{
			9:  {Key: 9, Label: "09:00", PartOfDay: types.Morning},
			14: {Key: 14, Label: "14:00", PartOfDay: types.Afternoon},
		},
		Products: map[int]types.ProductRow{
			1: {Key: 1, Category: "Coffee", Type: "Brewed", Detail: "Ethiopia Rg"},
			2: {Key: 2, Category: "Tea", Type: "Green", Detail: "Serenity Green Tea"},
		},
		Stores: map[int]types.StoreRow{
			5: {Key: 5, Location: "Lower Manhattan"},
		},
	}
	return engine.NewWithStats(ds, stats)
}

func postQuery(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestQueryHandler_TotalSales(t *testing.T) {
	h := NewQueryHandler(testEngine(nil))
	rec := postQuery(t, h, `{"operation":"total_sales"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Value == nil || !resp.Value.Valid || resp.Value.Float64 != 220 {
		t.Fatalf("value = %+v, want 220", resp.Value)
	}
}

func TestQueryHandler_FilteredTransactions(t *testing.T) {
	h := NewQueryHandler(testEngine(nil))
	body := `{"operation":"total_transactions","filter":{"clauses":[{"attribute":"month","values":["1"]}]}}`
	rec := postQuery(t, h, body)

	var resp QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Value == nil || resp.Value.Float64 != 1 {
		t.Fatalf("value = %+v, want 1", resp.Value)
	}
}

func TestQueryHandler_UndefinedAverageIsNull(t *testing.T) {
	h := NewQueryHandler(testEngine(nil))
	body := `{"operation":"average_transaction_value","filter":{"clauses":[{"attribute":"store_location","values":["Astoria"]}]}}`
	rec := postQuery(t, h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("undefined results are 200s, got %d", rec.Code)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["value"]) != "null" {
		t.Fatalf("value = %s, want null", raw["value"])
	}
}

func TestQueryHandler_UnknownAttributeIsEmptyMatch(t *testing.T) {
	h := NewQueryHandler(testEngine(nil))
	body := `{"operation":"total_sales","filter":{"clauses":[{"attribute":"flavor","values":["bold"]}]}}`
	rec := postQuery(t, h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("malformed filters match nothing, they are not errors; got %d", rec.Code)
	}
	var resp QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Value == nil || resp.Value.Float64 != 0 {
		t.Fatalf("value = %+v, want 0", resp.Value)
	}
}

func TestQueryHandler_TopProducts(t *testing.T) {
	h := NewQueryHandler(testEngine(nil))
	rec := postQuery(t, h, `{"operation":"top_products","n":2}`)

	var resp QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Products) != 2 {
		t.Fatalf("products = %+v", resp.Products)
	}
	if resp.Products[0].Detail != "Ethiopia Rg" || resp.Products[0].Rank != 1 {
		t.Fatalf("top product = %+v", resp.Products[0])
	}
}

func TestQueryHandler_Variance(t *testing.T) {
	h := NewQueryHandler(testEngine(nil))
	body := `{"operation":"month_over_month_variance","month":{"year":2023,"month":2},"metric":"total_sales"}`
	rec := postQuery(t, h, body)

	var resp QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Value == nil || !resp.Value.Valid || resp.Value.Float64 != 0.2 {
		t.Fatalf("variance = %+v, want 0.2", resp.Value)
	}
}

func TestQueryHandler_BadRequests(t *testing.T) {
	h := NewQueryHandler(testEngine(nil))
	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing operation", `{}`},
		{"unknown operation", `{"operation":"median_sales"}`},
		{"variance without month", `{"operation":"month_over_month_variance"}`},
		{"variance with bad month", `{"operation":"month_over_month_variance","month":{"year":2023,"month":13}}`},
		{"variance with bad metric", `{"operation":"month_over_month_variance","month":{"year":2023,"month":2},"metric":"mode"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postQuery(t, h, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestQueryHandler_MethodNotAllowed(t *testing.T) {
	h := NewQueryHandler(testEngine(nil))
	req := httptest.NewRequest(http.MethodGet, "/v1/query", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRouter_EndToEnd(t *testing.T) {
	stats := observability.NewQueryStats(time.Hour)
	eng := testEngine(stats)
	router := NewRouter(eng, stats)

	// Health check
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("middleware should set X-Request-ID")
	}

	// Query, then confirm the stats endpoint saw it
	rec = postQuery(t, router, `{"operation":"total_sales"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	var sr StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sr); err != nil {
		t.Fatal(err)
	}
	if len(sr.Operations) != 1 || sr.Operations[0].Name != "total_sales" {
		t.Fatalf("stats = %+v", sr.Operations)
	}

	// Dataset info
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/dataset", nil))
	var dr DatasetResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &dr); err != nil {
		t.Fatal(err)
	}
	if dr.LoadID != "api-test" || dr.FactRows != 3 {
		t.Fatalf("dataset info = %+v", dr)
	}
}

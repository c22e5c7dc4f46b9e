// Package integration provides end-to-end tests for Brewline: snapshot
// CSV in, aggregate answers out over the HTTP API, plus the cache and
// mart export paths.
package integration

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apihttp "github.com/brewline/brewline/internal/api/http"
	"github.com/brewline/brewline/internal/dataset"
	"github.com/brewline/brewline/internal/engine"
	"github.com/brewline/brewline/internal/filter"
	"github.com/brewline/brewline/internal/mart"
	"github.com/brewline/brewline/internal/observability"
)

const snapshotCSV = `transaction_id,transaction_date,transaction_time,transaction_qty,store_id,store_location,product_id,unit_price,product_category,product_type,product_detail
1,2023-01-10,08:30:00,2,5,Lower Manhattan,32,3.00,Coffee,Gourmet brewed coffee,Ethiopia Rg
1,2023-01-10,08:30:00,1,5,Lower Manhattan,57,3.10,Tea,Brewed Chai tea,Spicy Eye Opener Chai Lg
2,2023-02-15,13:05:00,1,8,Hell's Kitchen,32,3.00,Coffee,Gourmet brewed coffee,Ethiopia Rg
`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.csv")
	if err := os.WriteFile(path, []byte(snapshotCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSnapshotToHTTPAnswers(t *testing.T) {
	ds, err := dataset.LoadFile(writeSnapshot(t))
	if err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}

	stats := observability.NewQueryStats(time.Hour)
	eng := engine.NewWithStats(ds, stats)
	router := apihttp.NewRouter(eng, stats)

	query := func(body string) apihttp.QueryResponse {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("query failed with %d: %s", rec.Code, rec.Body.String())
		}
		var resp apihttp.QueryResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		return resp
	}

	// Row-level sales across both months: 2*3.00 + 1*3.10 + 1*3.00.
	resp := query(`{"operation":"total_sales"}`)
	if resp.Value == nil || math.Abs(resp.Value.Float64-12.10) > 1e-9 {
		t.Fatalf("total sales = %+v, want 12.10", resp.Value)
	}

	// Two line items share transaction 1.
	resp = query(`{"operation":"total_transactions"}`)
	if resp.Value == nil || resp.Value.Float64 != 2 {
		t.Fatalf("transactions = %+v, want 2", resp.Value)
	}

	resp = query(`{"operation":"average_transaction_value"}`)
	if resp.Value == nil || math.Abs(resp.Value.Float64-6.05) > 1e-9 {
		t.Fatalf("average = %+v, want 6.05", resp.Value)
	}

	// Morning rows only: the two January line items.
	resp = query(`{"operation":"total_sales","filter":{"clauses":[{"attribute":"part_of_day","values":["morning"]}]}}`)
	if resp.Value == nil || math.Abs(resp.Value.Float64-9.10) > 1e-9 {
		t.Fatalf("morning sales = %+v, want 9.10", resp.Value)
	}

	resp = query(`{"operation":"top_products","n":1}`)
	if len(resp.Products) != 1 || resp.Products[0].Detail != "Ethiopia Rg" || resp.Products[0].Rank != 1 {
		t.Fatalf("top products = %+v", resp.Products)
	}
	if math.Abs(resp.Products[0].Sales-9.00) > 1e-9 {
		t.Fatalf("top product sales = %v, want 9.00", resp.Products[0].Sales)
	}

	// February against January: (3.00 - 9.10) / 9.10.
	resp = query(`{"operation":"month_over_month_variance","month":{"year":2023,"month":2},"metric":"total_sales"}`)
	want := (3.00 - 9.10) / 9.10
	if resp.Value == nil || math.Abs(resp.Value.Float64-want) > 1e-9 {
		t.Fatalf("variance = %+v, want %v", resp.Value, want)
	}

	// January has no prior data, so its variance is undefined.
	resp = query(`{"operation":"month_over_month_variance","month":{"year":2023,"month":1},"metric":"total_sales"}`)
	if resp.Value == nil || resp.Value.Valid {
		t.Fatalf("variance with empty prior = %+v, want undefined", resp.Value)
	}

	// Every operation above should be visible in the stats endpoint.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	var sr apihttp.StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sr); err != nil {
		t.Fatal(err)
	}
	if len(sr.Operations) != 5 {
		t.Fatalf("stats tracked %d operations, want 5: %+v", len(sr.Operations), sr.Operations)
	}
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	ds, err := dataset.LoadFile(writeSnapshot(t))
	if err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}

	cachePath := filepath.Join(t.TempDir(), "dataset.bin")
	if err := dataset.SaveCache(ds, cachePath); err != nil {
		t.Fatalf("SaveCache failed: %v", err)
	}

	restored, err := dataset.LoadCache(cachePath)
	if err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}

	a, b := engine.New(ds), engine.New(restored)
	if got, want := a.TotalSales(filter.Filter{}), b.TotalSales(filter.Filter{}); got != want {
		t.Fatalf("cached dataset answers differently: %v vs %v", got, want)
	}
	if restored.LoadID != ds.LoadID {
		t.Errorf("load id changed across cache: %q vs %q", restored.LoadID, ds.LoadID)
	}
}

func TestSnapshotToMartExport(t *testing.T) {
	ds, err := dataset.LoadFile(writeSnapshot(t))
	if err != nil {
		t.Fatalf("failed to load snapshot: %v", err)
	}

	exporter := mart.NewExporter(t.TempDir())
	info, err := exporter.Export(context.Background(), ds)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if info.RowCount != 3 {
		t.Errorf("export row count = %d, want 3", info.RowCount)
	}
	if err := mart.Verify(context.Background(), info.Path, ds); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}

func TestMalformedSnapshotFailsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	bad := strings.Replace(snapshotCSV, "2,2023-02-15,13:05:00,1", "2,2023-02-15,13:05:00,-1", 1)
	if err := os.WriteFile(path, []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := dataset.LoadFile(path); err == nil {
		t.Fatal("nonpositive quantity must fail the load")
	}
}

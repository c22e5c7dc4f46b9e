// Package engine implements the aggregate operations over a loaded
// dataset: total sales, distinct transaction counts, average transaction
// value, ranked product tables and period-over-period variance. Every
// operation is a pure function of the dataset and the filter; results
// that have no defined value (ratios over an empty match, variance
// against a zero baseline) come back as an undefined Metric rather than
// an error or a fabricated zero.
package engine

import (
	"sort"

	"github.com/brewline/brewline/internal/calendar"
	"github.com/brewline/brewline/internal/dataset"
	"github.com/brewline/brewline/internal/filter"
	"github.com/brewline/brewline/internal/observability"
	"github.com/brewline/brewline/pkg/types"
)

// Engine executes aggregate queries against one immutable dataset.
type Engine struct {
	ds    *dataset.Dataset
	mem   *filter.Membership
	stats *observability.QueryStats
}

// New creates an engine over the dataset and builds its attribute
// membership index. The dataset must already be validated and must not
// be mutated afterwards.
func New(ds *dataset.Dataset) *Engine {
	return &Engine{ds: ds, mem: filter.NewMembership(ds)}
}

// NewWithStats creates an engine that records operation and filter
// usage into the given tracker. stats may be nil.
func NewWithStats(ds *dataset.Dataset, stats *observability.QueryStats) *Engine {
	e := New(ds)
	e.stats = stats
	return e
}

// Dataset returns the dataset the engine queries.
func (e *Engine) Dataset() *dataset.Dataset {
	return e.ds
}

// TotalSales returns the sum of quantity times unit price over every
// fact row matching the filter. An empty match sums to zero.
func (e *Engine) TotalSales(f filter.Filter) float64 {
	e.record("total_sales", f)
	return e.sumSales(f)
}

// TotalTransactions returns the number of distinct transaction IDs among
// the matching fact rows. Multiple line items of one transaction count
// once. An empty match counts zero.
func (e *Engine) TotalTransactions(f filter.Filter) int64 {
	e.record("total_transactions", f)
	return e.countTransactions(f)
}

// AverageTransactionValue returns total sales divided by the distinct
// transaction count. Undefined when the filter matches no transactions.
func (e *Engine) AverageTransactionValue(f filter.Filter) types.Metric {
	e.record("average_transaction_value", f)
	return e.averageValue(f)
}

// ProductSales is one row of a ranked product table.
type ProductSales struct {
	Detail string  `json:"product_detail"`
	Sales  float64 `json:"sales"`
	Rank   int     `json:"rank"`
}

// TopProducts returns products ranked by total sales, descending, using
// dense ranking: equal sales share a rank and the next distinct value
// takes the following rank. Every product whose rank is at most n is
// included, so ties at the boundary can push the result past n rows.
// Products with no matching rows do not appear. n <= 0 returns nothing.
func (e *Engine) TopProducts(f filter.Filter, n int) []ProductSales {
	e.record("top_products", f)
	if n <= 0 {
		return []ProductSales{}
	}

	m := filter.Compile(f, e.ds, e.mem)
	if m.Impossible() {
		return []ProductSales{}
	}

	// Grouped by product detail: two keys sharing a detail rank as one.
	salesByDetail := make(map[string]float64)
	for _, fact := range e.ds.Facts {
		if m.Matches(fact) {
			salesByDetail[e.ds.Products[fact.ProductKey].Detail] += fact.Sales()
		}
	}

	ranked := make([]ProductSales, 0, len(salesByDetail))
	for detail, sales := range salesByDetail {
		ranked = append(ranked, ProductSales{Detail: detail, Sales: sales})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Sales != ranked[j].Sales {
			return ranked[i].Sales > ranked[j].Sales
		}
		return ranked[i].Detail < ranked[j].Detail
	})

	rank := 0
	prev := 0.0
	for i := range ranked {
		if i == 0 || ranked[i].Sales != prev {
			rank++
			prev = ranked[i].Sales
		}
		if rank > n {
			return ranked[:i]
		}
		ranked[i].Rank = rank
	}
	return ranked
}

// MetricFunc computes one metric over a filtered dataset. The always
// defined operations are wrapped so variance can treat them uniformly.
type MetricFunc func(e *Engine, f filter.Filter) types.Metric

// SalesMetric adapts TotalSales for variance queries.
func SalesMetric(e *Engine, f filter.Filter) types.Metric {
	return types.Defined(e.sumSales(f))
}

// TransactionsMetric adapts TotalTransactions for variance queries.
func TransactionsMetric(e *Engine, f filter.Filter) types.Metric {
	return types.Defined(float64(e.countTransactions(f)))
}

// AverageValueMetric adapts AverageTransactionValue for variance queries.
func AverageValueMetric(e *Engine, f filter.Filter) types.Metric {
	return e.averageValue(f)
}

// MonthOverMonthVariance computes the relative change of a metric from
// the calendar month preceding the period to the period itself:
// (current - prior) / prior. The prior period is the same day span
// shifted back one month, with days clamped to the shorter month's end.
// Undefined when the period is invalid, when either side is undefined,
// or when the prior value is zero.
func (e *Engine) MonthOverMonthVariance(f filter.Filter, period calendar.Period, metric MetricFunc) types.Metric {
	e.record("month_over_month_variance", f)

	if !period.Valid() {
		return types.Undefined()
	}

	current := metric(e, f.WithPeriod(period))
	prior := metric(e, f.WithPeriod(period.PrevMonth()))

	if !current.Valid || !prior.Valid || prior.Float64 == 0 {
		return types.Undefined()
	}
	return types.Defined((current.Float64 - prior.Float64) / prior.Float64)
}

func (e *Engine) sumSales(f filter.Filter) float64 {
	m := filter.Compile(f, e.ds, e.mem)
	if m.Impossible() {
		return 0
	}
	total := 0.0
	for _, fact := range e.ds.Facts {
		if m.Matches(fact) {
			total += fact.Sales()
		}
	}
	return total
}

func (e *Engine) countTransactions(f filter.Filter) int64 {
	m := filter.Compile(f, e.ds, e.mem)
	if m.Impossible() {
		return 0
	}
	seen := make(map[int64]struct{})
	for _, fact := range e.ds.Facts {
		if m.Matches(fact) {
			seen[fact.TransactionID] = struct{}{}
		}
	}
	return int64(len(seen))
}

func (e *Engine) averageValue(f filter.Filter) types.Metric {
	count := e.countTransactions(f)
	if count == 0 {
		return types.Undefined()
	}
	return types.Defined(e.sumSales(f) / float64(count))
}

func (e *Engine) record(op string, f filter.Filter) {
	if e.stats == nil {
		return
	}
	e.stats.RecordOperation(op)
	for _, clause := range f.Clauses {
		e.stats.RecordAttribute(string(clause.Attr))
	}
}

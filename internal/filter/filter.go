// Package filter provides the dimension-attribute predicate model for
// aggregate queries. A Filter ANDs clauses together; values within one
// clause are ORed. Filters compile against a dataset into per-dimension
// allowed-key sets, so the fact scan only tests surrogate-key membership.
// A filter that references an unknown attribute or a value absent from
// its dimension compiles to an empty match, never an error: no rows can
// satisfy an impossible condition.
package filter

import (
	"strconv"
	"strings"

	"github.com/brewline/brewline/internal/calendar"
	"github.com/brewline/brewline/internal/dataset"
	"github.com/brewline/brewline/pkg/types"
)

// Attribute names a filterable dimension attribute.
type Attribute string

const (
	AttrStoreLocation   Attribute = "store_location"
	AttrProductCategory Attribute = "product_category"
	AttrProductType     Attribute = "product_type"
	AttrProductDetail   Attribute = "product_detail"
	AttrYear            Attribute = "year"
	AttrQuarter         Attribute = "quarter"
	AttrMonth           Attribute = "month"
	AttrDay             Attribute = "day"
	AttrHour            Attribute = "hour"
	AttrPartOfDay       Attribute = "part_of_day"
)

// ParseAttribute resolves an attribute name. Unknown names return false;
// callers treat a filter over an unknown attribute as matching nothing.
func ParseAttribute(name string) (Attribute, bool) {
	switch Attribute(strings.ToLower(strings.TrimSpace(name))) {
	case AttrStoreLocation:
		return AttrStoreLocation, true
	case AttrProductCategory:
		return AttrProductCategory, true
	case AttrProductType:
		return AttrProductType, true
	case AttrProductDetail:
		return AttrProductDetail, true
	case AttrYear:
		return AttrYear, true
	case AttrQuarter:
		return AttrQuarter, true
	case AttrMonth:
		return AttrMonth, true
	case AttrDay:
		return AttrDay, true
	case AttrHour:
		return AttrHour, true
	case AttrPartOfDay:
		return AttrPartOfDay, true
	}
	return "", false
}

// Clause restricts one attribute to a set of OR-combined values.
type Clause struct {
	Attr   Attribute `json:"attribute"`
	Values []string  `json:"values"`
}

// Filter is an AND of clauses plus an optional inclusive date-key range.
// The zero Filter matches every fact row.
type Filter struct {
	Clauses []Clause         `json:"clauses,omitempty"`
	Period  *calendar.Period `json:"period,omitempty"`
}

// IsEmpty reports whether the filter places no restriction at all.
func (f Filter) IsEmpty() bool {
	return len(f.Clauses) == 0 && f.Period == nil
}

// WithPeriod returns a copy of the filter restricted to the given period.
// The original filter is not modified; queries stay pure.
func (f Filter) WithPeriod(p calendar.Period) Filter {
	cp := f
	cp.Period = &p
	return cp
}

// Matcher is a filter compiled against one dataset. A nil key set means
// the dimension is unconstrained; an impossible filter is marked so the
// fact scan can be skipped entirely.
type Matcher struct {
	impossible bool

	dateKeys    map[int]struct{}
	timeKeys    map[int]struct{}
	productKeys map[int]struct{}
	storeKeys   map[int]struct{}

	period *calendar.Period
}

// Compile resolves the filter's clauses into surrogate-key sets for the
// dataset's dimensions. mem may be nil; when present, its bloom filters
// short-circuit clauses whose values cannot occur in the dimension.
func Compile(f Filter, ds *dataset.Dataset, mem *Membership) Matcher {
	m := Matcher{period: f.Period}
	if f.Period != nil && !f.Period.Valid() {
		m.impossible = true
		return m
	}

	for _, clause := range f.Clauses {
		if len(clause.Values) == 0 {
			continue
		}
		if _, ok := ParseAttribute(string(clause.Attr)); !ok {
			m.impossible = true
			return m
		}

		wanted := canonicalSet(clause.Values)

		// A definitive bloom miss on every value means no dimension row
		// can match; skip the dimension scan and match nothing.
		if mem != nil && !mem.anyMightContain(clause.Attr, wanted) {
			m.impossible = true
			return m
		}

		keys := resolveClauseKeys(clause.Attr, wanted, ds)
		if len(keys) == 0 {
			m.impossible = true
			return m
		}
		m.intersect(clause.Attr, keys)
		if m.impossible {
			return m
		}
	}
	return m
}

// Matches reports whether a fact row passes the compiled filter.
func (m Matcher) Matches(f types.FactRecord) bool {
	if m.impossible {
		return false
	}
	if m.period != nil && !m.period.Contains(calendar.DateKey(f.DateKey)) {
		return false
	}
	if m.dateKeys != nil {
		if _, ok := m.dateKeys[f.DateKey]; !ok {
			return false
		}
	}
	if m.timeKeys != nil {
		if _, ok := m.timeKeys[f.TimeKey]; !ok {
			return false
		}
	}
	if m.productKeys != nil {
		if _, ok := m.productKeys[f.ProductKey]; !ok {
			return false
		}
	}
	if m.storeKeys != nil {
		if _, ok := m.storeKeys[f.StoreKey]; !ok {
			return false
		}
	}
	return true
}

// Impossible reports whether the matcher was compiled from a filter that
// cannot match any row.
func (m Matcher) Impossible() bool {
	return m.impossible
}

// resolveClauseKeys scans the clause's dimension once and collects the
// surrogate keys of rows whose attribute matches any wanted value.
func resolveClauseKeys(attr Attribute, wanted map[string]struct{}, ds *dataset.Dataset) map[int]struct{} {
	keys := make(map[int]struct{})
	switch attr {
	case AttrStoreLocation:
		for key, row := range ds.Stores {
			if _, ok := wanted[canonical(row.Location)]; ok {
				keys[key] = struct{}{}
			}
		}
	case AttrProductCategory, AttrProductType, AttrProductDetail:
		for key, row := range ds.Products {
			if _, ok := wanted[canonical(productAttr(row, attr))]; ok {
				keys[key] = struct{}{}
			}
		}
	case AttrYear, AttrQuarter, AttrMonth, AttrDay:
		for key, row := range ds.Dates {
			if _, ok := wanted[canonical(dateAttr(row, attr))]; ok {
				keys[key] = struct{}{}
			}
		}
	case AttrHour, AttrPartOfDay:
		for key, row := range ds.Times {
			if _, ok := wanted[canonical(timeAttr(row, attr))]; ok {
				keys[key] = struct{}{}
			}
		}
	}
	return keys
}

// intersect narrows the key set for the clause's dimension; two clauses
// on the same dimension AND together.
func (m *Matcher) intersect(attr Attribute, keys map[int]struct{}) {
	var slot *map[int]struct{}
	switch attr {
	case AttrStoreLocation:
		slot = &m.storeKeys
	case AttrProductCategory, AttrProductType, AttrProductDetail:
		slot = &m.productKeys
	case AttrYear, AttrQuarter, AttrMonth, AttrDay:
		slot = &m.dateKeys
	case AttrHour, AttrPartOfDay:
		slot = &m.timeKeys
	default:
		m.impossible = true
		return
	}

	if *slot == nil {
		*slot = keys
	} else {
		merged := make(map[int]struct{})
		for k := range keys {
			if _, ok := (*slot)[k]; ok {
				merged[k] = struct{}{}
			}
		}
		*slot = merged
	}
	if len(*slot) == 0 {
		m.impossible = true
	}
}

func productAttr(row types.ProductRow, attr Attribute) string {
	switch attr {
	case AttrProductCategory:
		return row.Category
	case AttrProductType:
		return row.Type
	default:
		return row.Detail
	}
}

func dateAttr(row types.DateRow, attr Attribute) string {
	switch attr {
	case AttrYear:
		return strconv.Itoa(row.Year)
	case AttrQuarter:
		return strconv.Itoa(row.Quarter)
	case AttrMonth:
		return strconv.Itoa(row.Month)
	default:
		return strconv.Itoa(row.Day)
	}
}

func timeAttr(row types.TimeRow, attr Attribute) string {
	if attr == AttrHour {
		return strconv.Itoa(row.Key)
	}
	return string(row.PartOfDay)
}

func canonical(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func canonicalSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[canonical(v)] = struct{}{}
	}
	return set
}

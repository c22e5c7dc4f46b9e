package filter

import (
	"github.com/brewline/brewline/internal/bloom"
	"github.com/brewline/brewline/internal/dataset"
)

// Membership indexes the distinct values of every filterable attribute in
// bloom filters. Built once at load time; a definitive miss lets Compile
// mark a filter impossible without scanning the dimension.
type Membership struct {
	filters map[Attribute]*bloom.Filter
}

// allAttributes lists every filterable attribute with its dimension's
// row count source, used to size the bloom filters.
var allAttributes = []Attribute{
	AttrStoreLocation,
	AttrProductCategory,
	AttrProductType,
	AttrProductDetail,
	AttrYear,
	AttrQuarter,
	AttrMonth,
	AttrDay,
	AttrHour,
	AttrPartOfDay,
}

// NewMembership builds the attribute membership index for a dataset.
func NewMembership(ds *dataset.Dataset) *Membership {
	m := &Membership{filters: make(map[Attribute]*bloom.Filter, len(allAttributes))}

	for _, attr := range allAttributes {
		f := bloom.NewWithEstimates(dimensionSize(ds, attr), 0.01)
		for _, value := range attributeValues(ds, attr) {
			f.Add(canonical(value))
		}
		m.filters[attr] = f
	}
	return m
}

// MightContain reports whether the attribute may take the given value
// somewhere in the dataset. False is definitive.
func (m *Membership) MightContain(attr Attribute, value string) bool {
	f, ok := m.filters[attr]
	if !ok {
		return false
	}
	return f.Contains(canonical(value))
}

// anyMightContain reports whether any of the canonical values may occur.
func (m *Membership) anyMightContain(attr Attribute, wanted map[string]struct{}) bool {
	f, ok := m.filters[attr]
	if !ok {
		return false
	}
	for v := range wanted {
		if f.Contains(v) {
			return true
		}
	}
	return false
}

func dimensionSize(ds *dataset.Dataset, attr Attribute) int {
	switch attr {
	case AttrStoreLocation:
		return len(ds.Stores)
	case AttrProductCategory, AttrProductType, AttrProductDetail:
		return len(ds.Products)
	case AttrYear, AttrQuarter, AttrMonth, AttrDay:
		return len(ds.Dates)
	default:
		return len(ds.Times)
	}
}

func attributeValues(ds *dataset.Dataset, attr Attribute) []string {
	var values []string
	switch attr {
	case AttrStoreLocation:
		for _, row := range ds.Stores {
			values = append(values, row.Location)
		}
	case AttrProductCategory, AttrProductType, AttrProductDetail:
		for _, row := range ds.Products {
			values = append(values, productAttr(row, attr))
		}
	case AttrYear, AttrQuarter, AttrMonth, AttrDay:
		for _, row := range ds.Dates {
			values = append(values, dateAttr(row, attr))
		}
	case AttrHour, AttrPartOfDay:
		for _, row := range ds.Times {
			values = append(values, timeAttr(row, attr))
		}
	}
	return values
}

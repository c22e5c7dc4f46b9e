// Package types provides the core dimensional model types for Brewline.
package types

// FactRecord is a single transaction line item in the fact table.
// TransactionID is unique per line group, not per row: a transaction that
// spans several products produces several fact records sharing one ID.
type FactRecord struct {
	// TransactionID identifies the logical transaction this line belongs to
	TransactionID int64 `json:"transaction_id"`

	// DateKey references a DateRow (yyyymmdd surrogate key)
	DateKey int `json:"date_key"`

	// TimeKey references a TimeRow (hour-of-day bucket, 0-23)
	TimeKey int `json:"time_key"`

	// ProductKey references a ProductRow
	ProductKey int `json:"product_key"`

	// StoreKey references a StoreRow
	StoreKey int `json:"store_key"`

	// Quantity is the number of units sold on this line (positive)
	Quantity int64 `json:"quantity"`

	// UnitPrice is the price per unit (positive)
	UnitPrice float64 `json:"unit_price"`
}

// Sales returns the line revenue. The multiply happens per row so that
// filtered aggregates stay correct; summing quantities and prices
// separately and multiplying afterwards would not.
func (f FactRecord) Sales() float64 {
	return float64(f.Quantity) * f.UnitPrice
}

// DateRow is one row of the date dimension, one per calendar date.
// Key is the yyyymmdd integer encoding (e.g. 20230101), which is strictly
// monotonic in the date and supports range and offset queries without
// date parsing.
type DateRow struct {
	Key     int `json:"key"`
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
	Month   int `json:"month"`
	Day     int `json:"day"`
}

// PartOfDay buckets an hour of the day into a coarse daypart.
type PartOfDay string

const (
	Morning   PartOfDay = "morning"
	Afternoon PartOfDay = "afternoon"
	Evening   PartOfDay = "evening"
)

// TimeRow is one row of the time dimension, one per hour-of-day bucket.
type TimeRow struct {
	// Key is the hour of day, 0-23
	Key int `json:"key"`

	// Label is the display label for the bucket (e.g. "09:00")
	Label string `json:"label"`

	// PartOfDay is the daypart derived from the hour by a fixed mapping
	PartOfDay PartOfDay `json:"part_of_day"`
}

// ProductRow is one row of the product dimension.
type ProductRow struct {
	Key int `json:"key"`

	// Category is the top-level grouping (e.g. "Coffee", "Tea", "Bakery")
	Category string `json:"category"`

	// Type is the subcategory within the category
	Type string `json:"type"`

	// Detail is the full product name, the finest granularity used for
	// top-seller ranking
	Detail string `json:"detail"`
}

// StoreRow is one row of the store dimension.
type StoreRow struct {
	Key      int    `json:"key"`
	Location string `json:"location"`
}

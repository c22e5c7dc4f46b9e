// Package dataset loads the retail transaction snapshot and holds the
// immutable star schema it describes: one fact table of transaction line
// items referencing four dimensions (date, time, product, store) by
// surrogate integer key. The dataset is loaded once, validated, and never
// mutated; every query is a pure read over it.
package dataset

import (
	"fmt"

	"github.com/brewline/brewline/internal/calendar"
	"github.com/brewline/brewline/internal/errors"
	"github.com/brewline/brewline/pkg/types"
)

// Dataset is the loaded star schema. All fields are read-only after load;
// concurrent queries need no coordination.
type Dataset struct {
	// LoadID uniquely identifies this load of the snapshot
	LoadID string

	// Facts is the append-only fact table
	Facts []types.FactRecord

	// Dimension rows indexed by surrogate key
	Dates    map[int]types.DateRow
	Times    map[int]types.TimeRow
	Products map[int]types.ProductRow
	Stores   map[int]types.StoreRow
}

// RowCount returns the number of fact rows.
func (d *Dataset) RowCount() int {
	return len(d.Facts)
}

// Validate enforces the star-schema invariants: every fact foreign key
// must resolve to exactly one dimension row, and measures must be
// positive. A violation fails the whole load; rows are never silently
// dropped or null-filled.
func (d *Dataset) Validate() error {
	if len(d.Facts) == 0 {
		return errors.NewValidationError(errors.CodeEmptySnapshot, "snapshot contains no fact rows")
	}

	for i, f := range d.Facts {
		if _, ok := d.Dates[f.DateKey]; !ok {
			return d.integrityError(i, "date", f.DateKey)
		}
		if _, ok := d.Times[f.TimeKey]; !ok {
			return d.integrityError(i, "time", f.TimeKey)
		}
		if _, ok := d.Products[f.ProductKey]; !ok {
			return d.integrityError(i, "product", f.ProductKey)
		}
		if _, ok := d.Stores[f.StoreKey]; !ok {
			return d.integrityError(i, "store", f.StoreKey)
		}
		if f.Quantity <= 0 {
			return errors.NewValidationError(errors.CodeMalformedSnapshot,
				fmt.Sprintf("fact row %d: quantity must be positive, got %d", i, f.Quantity))
		}
		if f.UnitPrice <= 0 {
			return errors.NewValidationError(errors.CodeMalformedSnapshot,
				fmt.Sprintf("fact row %d: unit price must be positive, got %g", i, f.UnitPrice))
		}
	}

	for key, row := range d.Dates {
		if key != row.Key || !calendar.DateKey(key).Valid() {
			return errors.NewValidationError(errors.CodeMalformedSnapshot,
				fmt.Sprintf("date dimension key %d does not encode a calendar date", key))
		}
	}

	return nil
}

func (d *Dataset) integrityError(row int, dimension string, key int) error {
	return errors.NewValidationError(errors.CodeReferentialIntegrity,
		fmt.Sprintf("fact row %d references %s key %d with no dimension row", row, dimension, key)).
		WithDetails(map[string]interface{}{
			"row":       row,
			"dimension": dimension,
			"key":       key,
		})
}

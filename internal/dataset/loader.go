package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brewline/brewline/internal/calendar"
	"github.com/brewline/brewline/internal/errors"
	"github.com/brewline/brewline/pkg/types"
)

// The snapshot is a fixed 11-column line-item export. The schema is known
// in advance; no inference is performed. Header order is not significant.
var snapshotColumns = []string{
	"transaction_id",
	"transaction_date",
	"transaction_time",
	"transaction_qty",
	"store_id",
	"store_location",
	"product_id",
	"unit_price",
	"product_category",
	"product_type",
	"product_detail",
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// LoadFile reads and validates a snapshot CSV from the local filesystem.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCategoryValidation, errors.CodeMalformedSnapshot,
			fmt.Sprintf("cannot open snapshot %s", path), err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a snapshot CSV, builds the star schema, and validates it.
// Any referential-integrity or data-quality violation fails the load:
// the engine refuses an inconsistent dataset rather than repairing it.
func Load(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCategoryValidation, errors.CodeMalformedSnapshot,
			"cannot read snapshot header", err)
	}

	colIdx, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		LoadID:   uuid.New().String(),
		Dates:    make(map[int]types.DateRow),
		Times:    make(map[int]types.TimeRow),
		Products: make(map[int]types.ProductRow),
		Stores:   make(map[int]types.StoreRow),
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrap(errors.ErrCategoryValidation, errors.CodeMalformedSnapshot,
				fmt.Sprintf("snapshot line %d is not parseable", line), err)
		}
		if err := appendRow(ds, record, colIdx, line); err != nil {
			return nil, err
		}
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// mapHeader resolves each expected column to its index in the header.
func mapHeader(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range snapshotColumns {
		if _, ok := idx[col]; !ok {
			return nil, errors.NewValidationError(errors.CodeMalformedSnapshot,
				fmt.Sprintf("snapshot header missing column %q", col))
		}
	}
	return idx, nil
}

// appendRow parses one line item, registers its dimension rows, and
// appends the fact record.
func appendRow(ds *Dataset, record []string, colIdx map[string]int, line int) error {
	field := func(name string) string {
		i := colIdx[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	malformed := func(name string, err error) error {
		return errors.Wrap(errors.ErrCategoryValidation, errors.CodeMalformedSnapshot,
			fmt.Sprintf("snapshot line %d: bad %s %q", line, name, field(name)), err)
	}

	txnID, err := strconv.ParseInt(field("transaction_id"), 10, 64)
	if err != nil {
		return malformed("transaction_id", err)
	}

	date, err := time.Parse(dateLayout, field("transaction_date"))
	if err != nil {
		return malformed("transaction_date", err)
	}
	dateKey := int(calendar.NewDateKey(date.Year(), int(date.Month()), date.Day()))

	clock, err := time.Parse(timeLayout, field("transaction_time"))
	if err != nil {
		return malformed("transaction_time", err)
	}
	timeKey := clock.Hour()

	qty, err := strconv.ParseInt(field("transaction_qty"), 10, 64)
	if err != nil {
		return malformed("transaction_qty", err)
	}

	storeID, err := strconv.Atoi(field("store_id"))
	if err != nil {
		return malformed("store_id", err)
	}

	productID, err := strconv.Atoi(field("product_id"))
	if err != nil {
		return malformed("product_id", err)
	}

	price, err := strconv.ParseFloat(field("unit_price"), 64)
	if err != nil {
		return malformed("unit_price", err)
	}

	registerDate(ds, dateKey)
	registerTime(ds, timeKey)
	if err := registerProduct(ds, productID, field("product_category"), field("product_type"), field("product_detail"), line); err != nil {
		return err
	}
	if err := registerStore(ds, storeID, field("store_location"), line); err != nil {
		return err
	}

	ds.Facts = append(ds.Facts, types.FactRecord{
		TransactionID: txnID,
		DateKey:       dateKey,
		TimeKey:       timeKey,
		ProductKey:    productID,
		StoreKey:      storeID,
		Quantity:      qty,
		UnitPrice:     price,
	})
	return nil
}

func registerDate(ds *Dataset, key int) {
	if _, ok := ds.Dates[key]; ok {
		return
	}
	k := calendar.DateKey(key)
	ds.Dates[key] = types.DateRow{
		Key:     key,
		Year:    k.Year(),
		Quarter: k.Quarter(),
		Month:   k.Month(),
		Day:     k.Day(),
	}
}

func registerTime(ds *Dataset, hour int) {
	if _, ok := ds.Times[hour]; ok {
		return
	}
	ds.Times[hour] = types.TimeRow{
		Key:       hour,
		Label:     calendar.HourLabel(hour),
		PartOfDay: calendar.HourPartOfDay(hour),
	}
}

// registerProduct records the product dimension row for a key. Surrogate
// keys are immutable: the same key appearing with different attributes is
// a data-quality error, not a last-write-wins update.
func registerProduct(ds *Dataset, key int, category, ptype, detail string, line int) error {
	row := types.ProductRow{Key: key, Category: category, Type: ptype, Detail: detail}
	if existing, ok := ds.Products[key]; ok {
		if existing != row {
			return errors.NewValidationError(errors.CodeConflictingDimension,
				fmt.Sprintf("snapshot line %d: product key %d seen with conflicting attributes", line, key))
		}
		return nil
	}
	ds.Products[key] = row
	return nil
}

func registerStore(ds *Dataset, key int, location string, line int) error {
	row := types.StoreRow{Key: key, Location: location}
	if existing, ok := ds.Stores[key]; ok {
		if existing != row {
			return errors.NewValidationError(errors.CodeConflictingDimension,
				fmt.Sprintf("snapshot line %d: store key %d seen with conflicting attributes", line, key))
		}
		return nil
	}
	ds.Stores[key] = row
	return nil
}

package dataset

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/brewline/brewline/internal/errors"
)

// SaveCache writes a Snappy-compressed binary image of the dataset for
// fast warm reloads. The cache is a derived artifact: the CSV snapshot
// stays the source of truth.
func SaveCache(ds *Dataset, path string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ds); err != nil {
		return errors.NewInternalError("cannot encode dataset cache", err)
	}

	compressed := snappy.Encode(nil, buf.Bytes())

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed,
			fmt.Sprintf("cannot create cache directory for %s", path), err)
	}

	// Write-then-rename keeps half-written caches from being loaded.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0644); err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed,
			fmt.Sprintf("cannot write cache file %s", tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.NewStorageError(errors.CodeUploadFailed,
			fmt.Sprintf("cannot finalize cache file %s", path), err)
	}
	return nil
}

// LoadCache reads a dataset image written by SaveCache and re-validates
// it. A cache that fails validation is rejected the same way a bad
// snapshot is.
func LoadCache(path string) (*Dataset, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewStorageError(errors.CodeDownloadFailed,
			fmt.Sprintf("cannot read cache file %s", path), err)
	}

	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCategoryValidation, errors.CodeMalformedSnapshot,
			fmt.Sprintf("cache file %s is corrupt", path), err)
	}

	var ds Dataset
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&ds); err != nil {
		return nil, errors.Wrap(errors.ErrCategoryValidation, errors.CodeMalformedSnapshot,
			fmt.Sprintf("cache file %s is not a dataset image", path), err)
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

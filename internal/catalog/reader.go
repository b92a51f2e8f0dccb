package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/agbru/nedmatch/internal/errors"
	"github.com/agbru/nedmatch/internal/storage"
)

// ReadCSV parses a catalog with a header row. Lines starting with '#' are
// comments. A UTF-8 byte order mark on the first header cell is dropped.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewConfigError("catalog is empty: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	// Field counts are checked by NewTable with a clearer message.
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	return NewTable(header, records)
}

// Load opens a catalog location (local path or blob URL, optionally .gz or
// .zst compressed) and parses it.
func Load(ctx context.Context, location string) (*Table, error) {
	rc, err := storage.Open(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", location, err)
	}
	defer rc.Close()

	t, err := ReadCSV(rc)
	if err != nil {
		return nil, apperrors.WrapError(err, "load catalog %s", location)
	}
	return t, nil
}

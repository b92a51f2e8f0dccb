package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	apperrors "github.com/agbru/nedmatch/internal/errors"
	"github.com/agbru/nedmatch/internal/storage"
)

// Format identifies an output encoding.
type Format string

// Supported output formats.
const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format name. An empty name infers the format from
// location's extension, defaulting to CSV.
func ParseFormat(name, location string) (Format, error) {
	if name == "" {
		ext := strings.ToLower(path.Ext(storage.TrimCompression(location)))
		name = strings.TrimPrefix(ext, ".")
	}
	switch Format(strings.ToLower(name)) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatParquet:
		return FormatParquet, nil
	}
	return "", apperrors.ValidationError{Field: "format", Message: fmt.Sprintf("unknown output format %q (csv, json, parquet)", name)}
}

// Write encodes a in the given format.
func Write(w io.Writer, a *Augmented, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, a)
	case FormatParquet:
		return WriteParquet(w, a)
	default:
		return WriteCSV(w, a)
	}
}

// Save encodes a and stores it at location.
func Save(ctx context.Context, location string, a *Augmented, f Format) error {
	var buf bytes.Buffer
	if err := Write(&buf, a, f); err != nil {
		return fmt.Errorf("encode %s: %w", f, err)
	}
	if err := storage.Write(ctx, location, buf.Bytes()); err != nil {
		return fmt.Errorf("save catalog to %s: %w", location, err)
	}
	return nil
}

// WriteCSV writes the input columns followed by the flag column.
func WriteCSV(w io.Writer, a *Augmented) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(a.Header()); err != nil {
		return err
	}
	for i := 0; i < a.Len(); i++ {
		rec := append(append([]string(nil), a.Table.Record(i)...), strconv.Itoa(a.Flag(i)))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes an array of objects whose keys follow the header order.
// The flag column is a JSON number; every other value is kept as a string.
func WriteJSON(w io.Writer, a *Augmented) error {
	header := a.Table.Header()
	keys := make([][]byte, len(header))
	for i, h := range header {
		k, err := json.Marshal(h)
		if err != nil {
			return err
		}
		keys[i] = k
	}
	flagKey, err := json.Marshal(a.Column)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n  {")
		for j, v := range a.Table.Record(i) {
			val, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode row %d: %w", i, err)
			}
			buf.Write(keys[j])
			buf.WriteByte(':')
			buf.Write(val)
			buf.WriteByte(',')
		}
		buf.Write(flagKey)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(a.Flag(i)))
		buf.WriteByte('}')
	}
	if a.Len() > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("]\n")
	_, err = w.Write(buf.Bytes())
	return err
}

// parquetColumns returns the CSV-writer metadata for a: every input column
// as UTF8 text, then the flag column as INT32. The metadata syntax reserves
// ',' and '=', so they are replaced in column names.
func parquetColumns(a *Augmented) []string {
	header := a.Header()
	md := make([]string, len(header))
	for i, name := range header {
		name = strings.NewReplacer(",", "_", "=", "_").Replace(name)
		if i == len(header)-1 {
			md[i] = "name=" + name + ", type=INT32"
			continue
		}
		md[i] = "name=" + name + ", type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"
	}
	return md
}

// WriteParquet writes the input columns as text followed by the flag column
// as a snappy compressed parquet file.
func WriteParquet(w io.Writer, a *Augmented) (err error) {
	pw, err := writer.NewCSVWriterFromWriter(parquetColumns(a), w, 1)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	width := len(a.Table.Header())
	for i := 0; i < a.Len(); i++ {
		rec := make([]interface{}, 0, width+1)
		for _, cell := range a.Table.Record(i) {
			rec = append(rec, cell)
		}
		rec = append(rec, int32(a.Flag(i)))
		if err := pw.Write(rec); err != nil {
			return fmt.Errorf("write parquet row %d: %w", i, err)
		}
	}

	// WriteStop can panic on internal writer errors.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("finalize parquet: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet: %w", err)
	}
	return nil
}

package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/agbru/nedmatch/internal/errors"
)

// Required catalog columns, matched case-insensitively.
const (
	ColumnRA     = "RA"
	ColumnDec    = "DEC"
	ColumnSource = "SOURCE"
)

// Row is one catalog entry as seen by a worker.
type Row struct {
	// Index is the stable 0-based position in the table.
	Index    int
	Position SkyPosition
	// Source is the source-group label.
	Source string
}

// Table is an in-memory catalog. Records keep every input column as text so
// the augmented output reproduces the input unchanged. A Table is read-only
// once loaded and safe for concurrent readers.
type Table struct {
	header  []string
	records [][]string
	ra      int
	dec     int
	source  int
	frame   string
	equinox string
}

// NewTable builds a table from a header and its records. A header without
// the RA, DEC and SOURCE columns is a configuration error.
func NewTable(header []string, records [][]string) (*Table, error) {
	t := &Table{
		header:  header,
		records: records,
		ra:      -1,
		dec:     -1,
		source:  -1,
		frame:   DefaultFrame,
		equinox: DefaultEquinox,
	}
	for i, name := range header {
		switch strings.ToUpper(strings.TrimSpace(name)) {
		case ColumnRA:
			t.ra = i
		case ColumnDec:
			t.dec = i
		case ColumnSource:
			t.source = i
		}
	}

	var missing []string
	for _, c := range []struct {
		name string
		idx  int
	}{{ColumnRA, t.ra}, {ColumnDec, t.dec}, {ColumnSource, t.source}} {
		if c.idx < 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewConfigError("catalog is missing required column(s): %s", strings.Join(missing, ", "))
	}

	for i, rec := range records {
		if len(rec) != len(header) {
			return nil, apperrors.NewConfigError("catalog record %d has %d fields, header has %d", i, len(rec), len(header))
		}
	}
	return t, nil
}

// WithReferenceFrame returns a shallow copy whose rows report positions in
// the given frame and equinox.
func (t *Table) WithReferenceFrame(frame, equinox string) *Table {
	c := *t
	c.frame = frame
	c.equinox = equinox
	return &c
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.records) }

// Header returns a copy of the column names.
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

// CheckFlagColumn rejects a flag column name that the header already uses,
// compared case-insensitively. An empty name stands for DefaultFlagColumn.
func (t *Table) CheckFlagColumn(column string) error {
	if column == "" {
		column = DefaultFlagColumn
	}
	want := strings.TrimSpace(column)
	for _, name := range t.header {
		if strings.EqualFold(strings.TrimSpace(name), want) {
			return apperrors.NewConfigError("flag column %q already exists in the catalog; choose another name with --column", column)
		}
	}
	return nil
}

// Record returns the raw fields of row i. The slice must not be modified.
func (t *Table) Record(i int) []string { return t.records[i] }

// Row parses the position of row i. A malformed or out-of-range coordinate
// is reported as a ValidationError.
func (t *Table) Row(i int) (Row, error) {
	if i < 0 || i >= len(t.records) {
		return Row{}, fmt.Errorf("row %d outside catalog of %d rows", i, len(t.records))
	}
	rec := t.records[i]
	ra, err := parseAngle(ColumnRA, rec[t.ra])
	if err != nil {
		return Row{}, err
	}
	dec, err := parseAngle(ColumnDec, rec[t.dec])
	if err != nil {
		return Row{}, err
	}
	pos, err := NewSkyPosition(ra, dec)
	if err != nil {
		return Row{}, err
	}
	return Row{Index: i, Position: pos.In(t.frame, t.equinox), Source: strings.TrimSpace(rec[t.source])}, nil
}

func parseAngle(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, apperrors.ValidationError{Field: field, Message: fmt.Sprintf("cannot parse %q as degrees", raw)}
	}
	return v, nil
}

// Limit returns a table holding at most the first n rows. n <= 0 keeps all
// rows.
func (t *Table) Limit(n int) *Table {
	if n <= 0 || n >= len(t.records) {
		return t
	}
	c := *t
	c.records = t.records[:n]
	return &c
}

// SourceGroups returns the distinct, sorted source labels.
func (t *Table) SourceGroups() []string {
	seen := make(map[string]struct{})
	for _, rec := range t.records {
		seen[strings.TrimSpace(rec[t.source])] = struct{}{}
	}
	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

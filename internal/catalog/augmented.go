package catalog

import "fmt"

// DefaultFlagColumn is the name of the appended not-found column.
const DefaultFlagColumn = "NotInNED"

// Augmented is a catalog with one extra integer column holding the per-row
// not-found flag, in original row order.
type Augmented struct {
	Table  *Table
	Column string
	flags  []bool
}

// NewAugmented joins flags onto table. flags[i] belongs to row i. A column
// name already present in the table is a ConfigError.
func NewAugmented(table *Table, column string, flags []bool) (*Augmented, error) {
	if len(flags) != table.Len() {
		return nil, fmt.Errorf("flag column has %d values for %d rows", len(flags), table.Len())
	}
	if column == "" {
		column = DefaultFlagColumn
	}
	if err := table.CheckFlagColumn(column); err != nil {
		return nil, err
	}
	return &Augmented{Table: table, Column: column, flags: append([]bool(nil), flags...)}, nil
}

// Len returns the number of rows.
func (a *Augmented) Len() int { return len(a.flags) }

// NotFound reports the flag of row i.
func (a *Augmented) NotFound(i int) bool { return a.flags[i] }

// Flag returns the flag of row i as 0 or 1.
func (a *Augmented) Flag(i int) int {
	if a.flags[i] {
		return 1
	}
	return 0
}

// Flags returns a copy of the flag column.
func (a *Augmented) Flags() []int {
	out := make([]int, len(a.flags))
	for i := range a.flags {
		out[i] = a.Flag(i)
	}
	return out
}

// Header returns the input header followed by the flag column.
func (a *Augmented) Header() []string {
	return append(a.Table.Header(), a.Column)
}

package lookup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrUnexpectedSchema is returned when a response table lacks a column the
// decoder needs.
var ErrUnexpectedSchema = errors.New("unexpected response schema")

type voTable struct {
	XMLName   xml.Name     `xml:"VOTABLE"`
	Infos     []voInfo     `xml:"INFO"`
	Resources []voResource `xml:"RESOURCE"`
}

type voResource struct {
	Infos     []voInfo     `xml:"INFO"`
	Tables    []voTableDef `xml:"TABLE"`
	Resources []voResource `xml:"RESOURCE"`
}

type voInfo struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

type voTableDef struct {
	Fields []voField `xml:"FIELD"`
	Rows   []voRow   `xml:"DATA>TABLEDATA>TR"`
}

type voField struct {
	Name string `xml:"name,attr"`
	ID   string `xml:"ID,attr"`
}

type voRow struct {
	Cells []string `xml:"TD"`
}

// Column names, with the alternates seen across service versions.
var (
	nameColumns       = []string{"Object Name", "prefname", "main_id"}
	raColumns         = []string{"RA(deg)", "RA", "ra"}
	decColumns        = []string{"DEC(deg)", "DEC", "dec"}
	typeColumns       = []string{"Type", "pretype"}
	redshiftColumns   = []string{"Redshift", "z"}
	separationColumns = []string{"Distance (arcmin)", "Separation", "dist"}
)

// decodeVOTable reads a cone-search VOTable. A QUERY_STATUS of ERROR whose
// message reports that nothing was found yields no candidates and no error;
// any other ERROR status is a ServiceError.
func decodeVOTable(r io.Reader) ([]Candidate, error) {
	var doc voTable
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode votable: %w", err)
	}

	infos := doc.Infos
	var tables []voTableDef
	var walk func(rs []voResource)
	walk = func(rs []voResource) {
		for _, res := range rs {
			infos = append(infos, res.Infos...)
			tables = append(tables, res.Tables...)
			walk(res.Resources)
		}
	}
	walk(doc.Resources)

	for _, info := range infos {
		if !strings.EqualFold(info.Name, "QUERY_STATUS") || !strings.EqualFold(info.Value, "ERROR") {
			continue
		}
		msg := strings.TrimSpace(info.Text)
		if isNoMatchMessage(msg) {
			return []Candidate{}, nil
		}
		return nil, &ServiceError{Message: msg}
	}

	candidates := []Candidate{}
	for _, tbl := range tables {
		cs, err := tbl.candidates()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, cs...)
	}
	return candidates, nil
}

func isNoMatchMessage(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "no object") || strings.Contains(lower, "not found")
}

func (t voTableDef) column(names []string) int {
	for _, want := range names {
		for i, f := range t.Fields {
			if strings.EqualFold(f.Name, want) || strings.EqualFold(f.ID, want) {
				return i
			}
		}
	}
	return -1
}

func (t voTableDef) candidates() ([]Candidate, error) {
	if len(t.Rows) == 0 {
		return nil, nil
	}
	zCol := t.column(redshiftColumns)
	if zCol < 0 {
		return nil, fmt.Errorf("%w: no redshift column", ErrUnexpectedSchema)
	}
	nameCol := t.column(nameColumns)
	raCol := t.column(raColumns)
	decCol := t.column(decColumns)
	typeCol := t.column(typeColumns)
	sepCol := t.column(separationColumns)

	out := make([]Candidate, 0, len(t.Rows))
	for _, row := range t.Rows {
		cell := func(i int) string {
			if i < 0 || i >= len(row.Cells) {
				return ""
			}
			return strings.TrimSpace(row.Cells[i])
		}
		c := Candidate{
			Name:     cell(nameCol),
			Type:     cell(typeCol),
			Redshift: parseOptional(cell(zCol)),
		}
		if v := parseOptional(cell(raCol)); v != nil {
			c.RA = *v
		}
		if v := parseOptional(cell(decCol)); v != nil {
			c.Dec = *v
		}
		if v := parseOptional(cell(sepCol)); v != nil {
			c.Separation = Angle(*v * 60)
		}
		out = append(out, c)
	}
	return out, nil
}

// parseOptional returns nil for empty or non-numeric cells.
func parseOptional(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

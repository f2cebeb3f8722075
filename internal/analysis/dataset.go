package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	// ErrEmptyInput indicates the uploaded table has no data rows.
	ErrEmptyInput = errors.New("the uploaded file is empty")
	// ErrUnreadableInput indicates the input could not be parsed as a delimited table.
	ErrUnreadableInput = errors.New("the uploaded file is unreadable")
)

// Kind is the inferred element kind of a column.
type Kind int

const (
	KindUnknown Kind = iota
	KindNumeric
	KindCategorical
	KindTemporal
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	case KindTemporal:
		return "datetime"
	default:
		return "unknown"
	}
}

// MarshalText lets kinds serialize by name in JSON reports.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// LoadOptions controls how a delimited file becomes a Dataset.
type LoadOptions struct {
	// Delimiter for CSV. If 0, chosen from the file name (.tsv => tab, else comma).
	Delimiter rune
	// ParseDates declares columns as timestamps at load time. Every non-missing
	// value of a declared column must parse, otherwise loading fails.
	ParseDates []string
	// NaNValues are cell values treated as missing. Nil uses DefaultNaNValues.
	NaNValues []string
}

// DefaultNaNValues mirrors the markers common CSV exports use for missing cells.
var DefaultNaNValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "<nil>"}

// Column is one named, typed column of a Dataset.
type Column struct {
	Name  string
	Kind  Kind
	cells series.Series
	raw   []string
	times []time.Time // declared timestamp columns only
}

// Len returns the number of cells.
func (c *Column) Len() int { return c.cells.Len() }

// IsMissing reports whether cell i is missing.
func (c *Column) IsMissing(i int) bool { return c.cells.Elem(i).IsNA() }

// Text returns the cell as it appeared in the file; ok is false when the cell
// is missing.
func (c *Column) Text(i int) (string, bool) {
	if c.cells.Elem(i).IsNA() {
		return "", false
	}
	return c.raw[i], true
}

// Float returns the numeric value of cell i; ok is false for missing cells or
// non-numeric columns.
func (c *Column) Float(i int) (float64, bool) {
	if c.Kind != KindNumeric {
		return 0, false
	}
	e := c.cells.Elem(i)
	if e.IsNA() {
		return 0, false
	}
	return e.Float(), true
}

// Dataset is an immutable, ordered set of named columns loaded from one file.
type Dataset struct {
	Name    string
	frame   dataframe.DataFrame
	header  []string
	columns []*Column
	index   map[string]int
}

// Rows returns the number of data rows.
func (d *Dataset) Rows() int { return d.frame.Nrow() }

// Columns returns the columns in declared order.
func (d *Dataset) Columns() []*Column { return d.columns }

// Names returns the column names in declared order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.header))
	copy(out, d.header)
	return out
}

// Column looks up a column by name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// Head returns up to n rows as display strings; missing cells render as NaN.
func (d *Dataset) Head(n int) [][]string {
	if rows := d.Rows(); n <= 0 || n > rows {
		n = rows
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(d.columns))
		for j, c := range d.columns {
			if v, ok := c.Text(i); ok {
				row[j] = v
				continue
			}
			row[j] = "NaN"
		}
		out[i] = row
	}
	return out
}

// WriteCSV writes the header plus the first n rows (all rows if n <= 0) as
// comma-delimited text. Missing cells are written empty.
func (d *Dataset) WriteCSV(w io.Writer, n int) error {
	if rows := d.Rows(); n <= 0 || n > rows {
		n = rows
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(d.header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(d.columns))
	for i := 0; i < n; i++ {
		for j, c := range d.columns {
			rec[j], _ = c.Text(i)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadFile opens path and loads it as a Dataset.
func LoadFile(path string, opt LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return Load(f, filepath.Base(path), opt)
}

// Load reads a delimited table with a header row. It returns ErrEmptyInput when
// the input holds no data rows and ErrUnreadableInput when it cannot be parsed.
func Load(r io.Reader, name string, opt LoadOptions) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrUnreadableInput, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyInput
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name)
	}
	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	header := normalizeHeader(records[0])
	rows := records[1:]
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	ncol := len(header)
	for i, rec := range rows {
		switch {
		case len(rec) < ncol:
			tmp := make([]string, ncol)
			copy(tmp, rec)
			rows[i] = tmp
		case len(rec) > ncol:
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrUnreadableInput, i+2, len(rec), ncol)
		}
		// Type detection runs on these cells, so "5 " must arrive as "5".
		for j, cell := range rows[i] {
			rows[i][j] = strings.TrimSpace(cell)
		}
	}

	nan := opt.NaNValues
	if nan == nil {
		nan = DefaultNaNValues
	}
	declared := map[string]bool{}
	types := map[string]series.Type{}
	for _, c := range opt.ParseDates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !contains(header, c) {
			return nil, fmt.Errorf("%w: parse-dates column %q not found", ErrUnreadableInput, c)
		}
		declared[c] = true
		types[c] = series.String
	}

	all := make([][]string, 0, len(rows)+1)
	all = append(all, header)
	all = append(all, rows...)
	frame := dataframe.LoadRecords(all,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.Float),
		dataframe.NaNValues(nan),
		dataframe.WithTypes(types),
	)
	if frame.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableInput, frame.Err)
	}
	if frame.Nrow() == 0 {
		return nil, ErrEmptyInput
	}

	ds := &Dataset{
		Name:   name,
		frame:  frame,
		header: header,
		index:  make(map[string]int, ncol),
	}
	for i, h := range header {
		s := frame.Col(h)
		if s.Err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", ErrUnreadableInput, h, s.Err)
		}
		raw := make([]string, len(rows))
		for j, rec := range rows {
			raw[j] = rec[i]
		}
		c := &Column{Name: h, Kind: kindOf(s.Type()), cells: s, raw: raw}
		if declared[h] {
			dc, ok := ParseDateColumn(c)
			if !ok {
				return nil, fmt.Errorf("%w: column %q does not hold dates", ErrUnreadableInput, h)
			}
			c.Kind = KindTemporal
			c.times = dc.Times
		}
		ds.columns = append(ds.columns, c)
		ds.index[h] = i
	}
	return ds, nil
}

func kindOf(t series.Type) Kind {
	switch t {
	case series.Int, series.Float:
		return KindNumeric
	case series.String:
		return KindCategorical
	default:
		return KindUnknown
	}
}

// normalizeHeader names blank headers and de-duplicates repeated names so every
// column is addressable.
func normalizeHeader(in []string) []string {
	out := make([]string, len(in))
	seen := make(map[string]int, len(in))
	for i, h := range in {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[h]; ok {
			base := h
			for {
				n++
				h = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[h]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[h] = 0
		out[i] = h
	}
	return out
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	return ','
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

package analysis

import (
	"strings"
	"time"
)

// dateLayouts are tried in order. Month-first slash dates win over day-first
// ones; day-first only matches when month-first cannot (e.g. 13/01/2024).
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"01-02-2006",
	"02-01-2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	"Mon, 02 Jan 2006",
	time.RFC1123,
	time.RFC1123Z,
	"2006-01",
	"20060102",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateColumn is a column whose values were all read as timestamps.
// Times[i] is meaningful only when Missing[i] is false.
type DateColumn struct {
	Name    string
	Times   []time.Time
	Missing []bool
}

// ParseDateColumn reads every non-missing cell of c as a date. ok is false when
// any cell fails to parse or when the column holds no values at all; that is
// the "not a date column" outcome, not an error.
func ParseDateColumn(c *Column) (dc *DateColumn, ok bool) {
	n := c.Len()
	out := &DateColumn{
		Name:    c.Name,
		Times:   make([]time.Time, n),
		Missing: make([]bool, n),
	}
	parsed := 0
	for i := 0; i < n; i++ {
		v, present := c.Text(i)
		if !present {
			out.Missing[i] = true
			continue
		}
		t, good := parseTimeMaybe(v)
		if !good {
			return nil, false
		}
		out.Times[i] = t
		parsed++
	}
	if parsed == 0 {
		return nil, false
	}
	return out, true
}

// declaredDates builds a DateColumn from a column that was declared as a
// timestamp at load time.
func declaredDates(c *Column) *DateColumn {
	n := c.Len()
	out := &DateColumn{Name: c.Name, Times: make([]time.Time, n), Missing: make([]bool, n)}
	for i := 0; i < n; i++ {
		if c.IsMissing(i) || i >= len(c.times) {
			out.Missing[i] = true
			continue
		}
		out.Times[i] = c.times[i]
	}
	return out
}

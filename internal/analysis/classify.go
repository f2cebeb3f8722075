package analysis

import "strings"

// Classification partitions a dataset's column names into three disjoint,
// declared-order sets. Columns of unknown kind belong to none of them.
type Classification struct {
	Numeric     []string `json:"numeric"`
	Categorical []string `json:"categorical"`
	DateLike    []string `json:"date_like"`
	// Inferred is true when the date-like column was adopted by name and a
	// successful parse rather than by its declared type.
	Inferred bool `json:"inferred_date"`

	dates map[string]*DateColumn
}

// Dates returns the parsed timestamps of a date-like column.
func (c Classification) Dates(name string) (*DateColumn, bool) {
	dc, ok := c.dates[name]
	return dc, ok
}

// PrimaryDate returns the date column used for time series, if any.
func (c Classification) PrimaryDate() (string, bool) {
	if len(c.DateLike) == 0 {
		return "", false
	}
	return c.DateLike[0], true
}

// Classify derives the column classification of ds. It depends only on each
// column's kind and name (plus whether a candidate's values parse as dates),
// never mutates ds, and never fails.
func Classify(ds *Dataset) Classification {
	var c Classification
	c.dates = map[string]*DateColumn{}
	for _, col := range ds.Columns() {
		switch col.Kind {
		case KindNumeric:
			c.Numeric = append(c.Numeric, col.Name)
		case KindCategorical:
			c.Categorical = append(c.Categorical, col.Name)
		case KindTemporal:
			c.DateLike = append(c.DateLike, col.Name)
			c.dates[col.Name] = declaredDates(col)
		}
	}
	if len(c.DateLike) > 0 {
		return c
	}
	for _, col := range ds.Columns() {
		if !strings.Contains(strings.ToLower(col.Name), "date") {
			continue
		}
		dc, ok := ParseDateColumn(col)
		if !ok {
			continue
		}
		c.DateLike = []string{col.Name}
		c.dates[col.Name] = dc
		c.Inferred = true
		c.Numeric = without(c.Numeric, col.Name)
		c.Categorical = without(c.Categorical, col.Name)
		break
	}
	return c
}

func without(xs []string, name string) []string {
	var out []string
	for _, x := range xs {
		if x != name {
			out = append(out, x)
		}
	}
	return out
}

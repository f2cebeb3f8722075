package analysis

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ChartKind names how a chart is drawn.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
)

// AggregationSum is the only aggregation charts use.
const AggregationSum = "sum"

// Default chart caps.
const (
	DefaultMaxBarCharts  = 2
	DefaultMaxLineCharts = 2
)

// ChartSpec declares one chart before it is aggregated or drawn.
type ChartSpec struct {
	Kind        ChartKind `json:"kind"`
	X           string    `json:"x"`
	Y           string    `json:"y"`
	Aggregation string    `json:"aggregation"`
}

// Title is the caption shown above the chart.
func (s ChartSpec) Title() string {
	if s.Kind == ChartLine {
		return fmt.Sprintf("%s Over Time (%s)", s.Y, s.X)
	}
	return fmt.Sprintf("%s by %s", s.Y, s.X)
}

// Point is one aggregated value. Time is set for line charts only.
type Point struct {
	Label string    `json:"label"`
	Time  time.Time `json:"time,omitempty"`
	Value float64   `json:"value"`
}

// Chart is a spec together with its aggregated points.
type Chart struct {
	Spec   ChartSpec `json:"spec"`
	Title  string    `json:"title"`
	Points []Point   `json:"points"`
}

// SelectBarCharts pairs categorical columns (outer) with numeric columns
// (inner) in declared order and stops both loops once limit specs exist.
// Each call starts over from the first categorical column.
func SelectBarCharts(c Classification, limit int) []ChartSpec {
	if limit <= 0 {
		return nil
	}
	var out []ChartSpec
outer:
	for _, cat := range c.Categorical {
		for _, num := range c.Numeric {
			if len(out) >= limit {
				break outer
			}
			out = append(out, ChartSpec{Kind: ChartBar, X: cat, Y: num, Aggregation: AggregationSum})
		}
	}
	return out
}

// SelectTimeSeries crosses the primary date column with the first limit
// numeric columns. It is empty when no date-like column exists.
func SelectTimeSeries(c Classification, limit int) []ChartSpec {
	date, ok := c.PrimaryDate()
	if !ok || limit <= 0 {
		return nil
	}
	nums := c.Numeric
	if len(nums) > limit {
		nums = nums[:limit]
	}
	out := make([]ChartSpec, 0, len(nums))
	for _, num := range nums {
		out = append(out, ChartSpec{Kind: ChartLine, X: date, Y: num, Aggregation: AggregationSum})
	}
	return out
}

// ErrUnknownColumn is returned when a spec names a column the dataset lacks.
var ErrUnknownColumn = errors.New("unknown column")

// AggregateBar sums spec.Y grouped by the distinct values of spec.X. Rows with
// a missing key or value are skipped. Points are sorted by descending sum;
// equal sums keep ascending label order.
func AggregateBar(ds *Dataset, spec ChartSpec) (Chart, error) {
	xc, yc, err := specColumns(ds, spec)
	if err != nil {
		return Chart{}, err
	}
	sums := map[string]float64{}
	for i := 0; i < ds.Rows(); i++ {
		key, ok := xc.Text(i)
		if !ok {
			continue
		}
		v, ok := yc.Float(i)
		if !ok {
			continue
		}
		sums[key] += v
	}
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sort.SliceStable(keys, func(i, j int) bool { return sums[keys[i]] > sums[keys[j]] })
	pts := make([]Point, len(keys))
	for i, k := range keys {
		pts[i] = Point{Label: k, Value: sums[k]}
	}
	return Chart{Spec: spec, Title: spec.Title(), Points: pts}, nil
}

// AggregateTimeSeries sums spec.Y per distinct timestamp of the date column.
// Rows with a missing date or value are dropped first. Points ascend by time.
func AggregateTimeSeries(ds *Dataset, dates *DateColumn, spec ChartSpec) (Chart, error) {
	if dates == nil || dates.Name != spec.X {
		return Chart{}, fmt.Errorf("%w: no parsed dates for %q", ErrUnknownColumn, spec.X)
	}
	_, yc, err := specColumns(ds, spec)
	if err != nil {
		return Chart{}, err
	}
	sums := map[time.Time]float64{}
	for i := 0; i < ds.Rows() && i < len(dates.Times); i++ {
		if dates.Missing[i] {
			continue
		}
		v, ok := yc.Float(i)
		if !ok {
			continue
		}
		sums[dates.Times[i]] += v
	}
	times := make([]time.Time, 0, len(sums))
	for t := range sums {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	pts := make([]Point, len(times))
	for i, t := range times {
		pts[i] = Point{Label: timeLabel(t), Time: t, Value: sums[t]}
	}
	return Chart{Spec: spec, Title: spec.Title(), Points: pts}, nil
}

// BuildCharts selects and aggregates every chart for ds: bar charts first,
// then time series.
func BuildCharts(ds *Dataset, c Classification, maxBars, maxLines int) ([]Chart, error) {
	var out []Chart
	for _, spec := range SelectBarCharts(c, maxBars) {
		ch, err := AggregateBar(ds, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	specs := SelectTimeSeries(c, maxLines)
	if len(specs) == 0 {
		return out, nil
	}
	dates, _ := c.Dates(specs[0].X)
	for _, spec := range specs {
		ch, err := AggregateTimeSeries(ds, dates, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

func specColumns(ds *Dataset, spec ChartSpec) (*Column, *Column, error) {
	xc, ok := ds.Column(spec.X)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownColumn, spec.X)
	}
	yc, ok := ds.Column(spec.Y)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownColumn, spec.Y)
	}
	return xc, yc, nil
}

func timeLabel(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

package analysis

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func names(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func TestSelectBarChartsCount(t *testing.T) {
	for cats := 0; cats <= 3; cats++ {
		for nums := 0; nums <= 3; nums++ {
			c := Classification{Categorical: names("c", cats), Numeric: names("n", nums)}
			got := SelectBarCharts(c, DefaultMaxBarCharts)
			want := cats * nums
			if want > DefaultMaxBarCharts {
				want = DefaultMaxBarCharts
			}
			if len(got) != want {
				t.Fatalf("cats=%d nums=%d: %d specs, want %d", cats, nums, len(got), want)
			}
		}
	}
}

func TestSelectBarChartsCategoricalMajor(t *testing.T) {
	c := Classification{Categorical: []string{"region", "segment"}, Numeric: []string{"revenue", "units", "cost"}}
	got := SelectBarCharts(c, 2)
	want := []ChartSpec{
		{Kind: ChartBar, X: "region", Y: "revenue", Aggregation: AggregationSum},
		{Kind: ChartBar, X: "region", Y: "units", Aggregation: AggregationSum},
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("specs = %v, want %v", got, want)
	}

	// One numeric column: the cap spills into the next categorical column.
	c = Classification{Categorical: []string{"region", "segment", "channel"}, Numeric: []string{"revenue"}}
	got = SelectBarCharts(c, 2)
	if len(got) != 2 || got[0].X != "region" || got[1].X != "segment" {
		t.Fatalf("specs = %v", got)
	}

	// Stateless: a second call starts over from the first categorical column.
	again := SelectBarCharts(c, 2)
	if fmt.Sprint(again) != fmt.Sprint(got) {
		t.Fatalf("second call = %v, want %v", again, got)
	}
	if SelectBarCharts(c, 0) != nil {
		t.Fatalf("zero cap must select nothing")
	}
}

func TestSelectTimeSeries(t *testing.T) {
	c := Classification{DateLike: []string{"date"}, Numeric: []string{"a", "b", "c"}}
	got := SelectTimeSeries(c, DefaultMaxLineCharts)
	if len(got) != 2 || got[0].Y != "a" || got[1].Y != "b" || got[0].X != "date" || got[0].Kind != ChartLine {
		t.Fatalf("specs = %v", got)
	}
	if got := SelectTimeSeries(Classification{Numeric: []string{"a"}}, 2); len(got) != 0 {
		t.Fatalf("no date column should select nothing: %v", got)
	}
	if got := SelectTimeSeries(Classification{DateLike: []string{"date"}}, 2); len(got) != 0 {
		t.Fatalf("no numeric column should select nothing: %v", got)
	}
}

func TestScenarioSingleBarChart(t *testing.T) {
	ds := load(t, "region,revenue\nEast,100\nWest,200\nEast,50\n", LoadOptions{})
	c := Classify(ds)
	charts, err := BuildCharts(ds, c, DefaultMaxBarCharts, DefaultMaxLineCharts)
	if err != nil {
		t.Fatalf("BuildCharts: %v", err)
	}
	if len(charts) != 1 {
		t.Fatalf("charts = %d, want 1", len(charts))
	}
	ch := charts[0]
	if ch.Spec.Kind != ChartBar || ch.Spec.X != "region" || ch.Spec.Y != "revenue" {
		t.Fatalf("spec = %+v", ch.Spec)
	}
	if ch.Title != "revenue by region" {
		t.Fatalf("title = %q", ch.Title)
	}
	if len(ch.Points) != 2 || ch.Points[0].Label != "West" || ch.Points[0].Value != 200 || ch.Points[1].Label != "East" || ch.Points[1].Value != 150 {
		t.Fatalf("points = %+v", ch.Points)
	}
}

func TestScenarioSingleTimeSeries(t *testing.T) {
	ds := load(t, "date,sales\n2024-01-01,10\n2024-01-02,20\n", LoadOptions{})
	c := Classify(ds)
	charts, err := BuildCharts(ds, c, DefaultMaxBarCharts, DefaultMaxLineCharts)
	if err != nil {
		t.Fatalf("BuildCharts: %v", err)
	}
	if len(charts) != 1 {
		t.Fatalf("charts = %d, want 1: %+v", len(charts), charts)
	}
	ch := charts[0]
	if ch.Spec.Kind != ChartLine || ch.Spec.X != "date" || ch.Spec.Y != "sales" {
		t.Fatalf("spec = %+v", ch.Spec)
	}
	if ch.Title != "sales Over Time (date)" {
		t.Fatalf("title = %q", ch.Title)
	}
	if len(ch.Points) != 2 || ch.Points[0].Label != "2024-01-01" || ch.Points[1].Value != 20 {
		t.Fatalf("points = %+v", ch.Points)
	}
}

func TestAggregateBarSkipsMissingAndBreaksTies(t *testing.T) {
	ds := load(t, "city,amount\nB,5\nA,5\n,100\nC,NA\nC,1\n", LoadOptions{})
	ch, err := AggregateBar(ds, ChartSpec{Kind: ChartBar, X: "city", Y: "amount", Aggregation: AggregationSum})
	if err != nil {
		t.Fatalf("AggregateBar: %v", err)
	}
	var labels []string
	for _, p := range ch.Points {
		labels = append(labels, p.Label)
	}
	if got := strings.Join(labels, ","); got != "A,B,C" {
		t.Fatalf("labels = %s, want A,B,C", got)
	}
	if ch.Points[2].Value != 1 {
		t.Fatalf("C = %v, want 1", ch.Points[2].Value)
	}
}

func TestAggregateTimeSeriesDropsMissingAndSums(t *testing.T) {
	ds := load(t, "date,sales\n2024-01-02,1\n2024-01-01,2\n2024-01-02,3\nNA,50\n2024-01-03,NA\n", LoadOptions{})
	c := Classify(ds)
	dates, ok := c.Dates("date")
	if !ok {
		t.Fatalf("date column not adopted: %+v", c)
	}
	ch, err := AggregateTimeSeries(ds, dates, ChartSpec{Kind: ChartLine, X: "date", Y: "sales", Aggregation: AggregationSum})
	if err != nil {
		t.Fatalf("AggregateTimeSeries: %v", err)
	}
	if len(ch.Points) != 2 {
		t.Fatalf("points = %+v, want 2", ch.Points)
	}
	if ch.Points[0].Label != "2024-01-01" || ch.Points[0].Value != 2 || ch.Points[1].Value != 4 {
		t.Fatalf("points = %+v", ch.Points)
	}
}

func TestAggregateUnknownColumn(t *testing.T) {
	ds := load(t, "region,revenue\nEast,1\n", LoadOptions{})
	_, err := AggregateBar(ds, ChartSpec{Kind: ChartBar, X: "nope", Y: "revenue"})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
	_, err = AggregateTimeSeries(ds, nil, ChartSpec{Kind: ChartLine, X: "date", Y: "revenue"})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestChartCountNeverExceedsCaps(t *testing.T) {
	var hdr, row []string
	for i := 0; i < 6; i++ {
		hdr = append(hdr, fmt.Sprintf("cat%d", i), fmt.Sprintf("num%d", i))
		row = append(row, "x", "1")
	}
	hdr = append(hdr, "date")
	row = append(row, "2024-01-01")
	ds := load(t, strings.Join(hdr, ",")+"\n"+strings.Join(row, ",")+"\n", LoadOptions{})
	charts, err := BuildCharts(ds, Classify(ds), DefaultMaxBarCharts, DefaultMaxLineCharts)
	if err != nil {
		t.Fatalf("BuildCharts: %v", err)
	}
	var bars, lines int
	for _, ch := range charts {
		switch ch.Spec.Kind {
		case ChartBar:
			bars++
		case ChartLine:
			lines++
		}
	}
	if bars != 2 || lines != 2 {
		t.Fatalf("bars=%d lines=%d, want 2 and 2", bars, lines)
	}
}

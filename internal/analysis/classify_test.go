package analysis

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassifyPartitionsByKind(t *testing.T) {
	ds := load(t, "region,units,price,active\nEast,3,1.5,true\nWest,4,2.25,false\n", LoadOptions{})
	c := Classify(ds)
	if !reflect.DeepEqual(c.Numeric, []string{"units", "price"}) {
		t.Fatalf("numeric = %v", c.Numeric)
	}
	if !reflect.DeepEqual(c.Categorical, []string{"region"}) {
		t.Fatalf("categorical = %v", c.Categorical)
	}
	if len(c.DateLike) != 0 {
		t.Fatalf("date-like = %v, want none", c.DateLike)
	}
}

func TestClassifyInfersDateByName(t *testing.T) {
	ds := load(t, "order_date,region,sales\n2024-01-01,East,10\n2024-01-02,West,20\n", LoadOptions{})
	c := Classify(ds)
	if !reflect.DeepEqual(c.DateLike, []string{"order_date"}) {
		t.Fatalf("date-like = %v", c.DateLike)
	}
	if !c.Inferred {
		t.Fatalf("expected inferred date column")
	}
	if !reflect.DeepEqual(c.Categorical, []string{"region"}) {
		t.Fatalf("date column must leave the categorical set: %v", c.Categorical)
	}
	dc, ok := c.Dates("order_date")
	if !ok || len(dc.Times) != 2 || dc.Times[1].Day() != 2 {
		t.Fatalf("dates = %+v", dc)
	}
}

func TestClassifyMixedCaseDateNameThatFailsToParse(t *testing.T) {
	ds := load(t, "Date,sales\n2024-01-01,1\nyesterday,2\n", LoadOptions{})
	c := Classify(ds)
	if len(c.DateLike) != 0 {
		t.Fatalf("date-like = %v, want none", c.DateLike)
	}
	if got := SelectTimeSeries(c, DefaultMaxLineCharts); len(got) != 0 {
		t.Fatalf("time series = %v, want none", got)
	}
	// The failed candidate stays an ordinary categorical column.
	if !reflect.DeepEqual(c.Categorical, []string{"Date"}) {
		t.Fatalf("categorical = %v", c.Categorical)
	}
}

func TestClassifyAdoptsOnlyFirstParsableDateColumn(t *testing.T) {
	ds := load(t, "ship_date,DATE_created,update_date,qty\nsoon,2024-02-01,2024-03-01,1\nlater,2024-02-02,2024-03-02,2\n", LoadOptions{})
	c := Classify(ds)
	if !reflect.DeepEqual(c.DateLike, []string{"DATE_created"}) {
		t.Fatalf("date-like = %v", c.DateLike)
	}
	if !reflect.DeepEqual(c.Categorical, []string{"ship_date", "update_date"}) {
		t.Fatalf("categorical = %v", c.Categorical)
	}
}

func TestClassifyDeclaredDatesSkipNameScan(t *testing.T) {
	ds := load(t, "when,order_date,amount\n2024-01-01,2024-05-01,1\n", LoadOptions{ParseDates: []string{"when"}})
	c := Classify(ds)
	if !reflect.DeepEqual(c.DateLike, []string{"when"}) {
		t.Fatalf("date-like = %v", c.DateLike)
	}
	if c.Inferred {
		t.Fatalf("declared column must not be reported as inferred")
	}
	if !reflect.DeepEqual(c.Categorical, []string{"order_date"}) {
		t.Fatalf("categorical = %v", c.Categorical)
	}
}

func TestClassifyIgnoresAllMissingDateCandidate(t *testing.T) {
	ds := load(t, "date,sales\nNA,1\n,2\n", LoadOptions{})
	if c := Classify(ds); len(c.DateLike) != 0 {
		t.Fatalf("date-like = %v, want none", c.DateLike)
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	ds := load(t, "date,region,sales\n2024-01-01,East,10\n2024-01-02,West,20\n", LoadOptions{})
	a := Classify(ds)
	b := Classify(ds)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("classifications differ:\n%+v\n%+v", a, b)
	}
}

func TestClassifyIgnoresRowOrder(t *testing.T) {
	rows := []string{"East,10,2024-01-01", "West,20,2024-01-02", "North,5,2024-01-03"}
	fwd := load(t, "region,sales,date\n"+strings.Join(rows, "\n")+"\n", LoadOptions{})
	rev := load(t, "region,sales,date\n"+rows[2]+"\n"+rows[1]+"\n"+rows[0]+"\n", LoadOptions{})
	a, b := Classify(fwd), Classify(rev)
	if !reflect.DeepEqual(a.Numeric, b.Numeric) || !reflect.DeepEqual(a.Categorical, b.Categorical) || !reflect.DeepEqual(a.DateLike, b.DateLike) {
		t.Fatalf("classification depends on row order: %+v vs %+v", a, b)
	}
}

func TestParseTimeMaybeLayouts(t *testing.T) {
	good := []string{"2024-01-31", "2024-01-31T10:00:00Z", "01/31/2024", "31/01/2024", "Jan 31, 2024", "2024/01/31", "20240131"}
	for _, s := range good {
		if _, ok := parseTimeMaybe(s); !ok {
			t.Errorf("parseTimeMaybe(%q) failed", s)
		}
	}
	for _, s := range []string{"", "East", "12.5", "2024-13-45"} {
		if _, ok := parseTimeMaybe(s); ok {
			t.Errorf("parseTimeMaybe(%q) unexpectedly succeeded", s)
		}
	}
}

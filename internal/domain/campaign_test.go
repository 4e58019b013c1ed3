package domain

import (
	"errors"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestCampaignValidate(t *testing.T) {
	t.Parallel()

	valid := Campaign{Name: "spring-survey", AreaID: "area-1", DateStart: day(1), DateEnd: day(10)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	inverted := valid
	inverted.DateStart, inverted.DateEnd = inverted.DateEnd, inverted.DateStart
	if err := inverted.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() with inverted window error = %v, want ErrValidation", err)
	}

	unnamed := valid
	unnamed.Name = " "
	if err := unnamed.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() without name error = %v, want ErrValidation", err)
	}
}

func TestCampaignActiveAt(t *testing.T) {
	t.Parallel()

	c := Campaign{DateStart: day(1), DateEnd: day(10)}

	if !c.ActiveAt(day(1)) || !c.ActiveAt(day(5)) || !c.ActiveAt(day(10)) {
		t.Fatal("ActiveAt() should include window boundaries")
	}
	if c.ActiveAt(day(11)) {
		t.Fatal("ActiveAt() should exclude instants past dateEnd")
	}
}

func TestCampaignOverlaps(t *testing.T) {
	t.Parallel()

	a := Campaign{DateStart: day(1), DateEnd: day(10)}
	b := Campaign{DateStart: day(10), DateEnd: day(20)}
	c := Campaign{DateStart: day(11), DateEnd: day(20)}

	if !a.Overlaps(&b) {
		t.Fatal("Overlaps() should report shared boundary day as overlap")
	}
	if a.Overlaps(&c) {
		t.Fatal("Overlaps() should not report disjoint windows")
	}
}

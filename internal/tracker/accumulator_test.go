package tracker

import (
	"reflect"
	"testing"

	"github.com/creatorsconnections/liveboard/internal/repository"
)

func TestCounterKeepsFirstSeenOrder(t *testing.T) {
	c := newCounter()
	c.Add("zoe", 1)
	c.Add("adam", 5)
	c.Add("zoe", 2)
	c.Add("mia", 1)

	got := c.Snapshot()
	want := []repository.MetricTotal{
		{PerformerHandle: "zoe", Total: 3},
		{PerformerHandle: "adam", Total: 5},
		{PerformerHandle: "mia", Total: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestRankTotalsBreaksTiesByFirstSeen(t *testing.T) {
	totals := []repository.MetricTotal{
		{PerformerHandle: "zoe", Total: 10},
		{PerformerHandle: "adam", Total: 25},
		{PerformerHandle: "mia", Total: 10},
	}
	got := rankTotals(totals)
	want := []repository.MetricTotal{
		{PerformerHandle: "adam", Total: 25},
		{PerformerHandle: "zoe", Total: 10},
		{PerformerHandle: "mia", Total: 10},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rankTotals() = %v, want %v", got, want)
	}
	// Input order is untouched.
	if totals[0].PerformerHandle != "zoe" {
		t.Error("rankTotals mutated its input")
	}
}

func TestMergeTotalsAddsAndAppends(t *testing.T) {
	base := []repository.MetricTotal{
		{PerformerHandle: "zoe", Total: 10},
		{PerformerHandle: "adam", Total: 4},
	}
	extra := []repository.MetricTotal{
		{PerformerHandle: "adam", Total: 6},
		{PerformerHandle: "newbie", Total: 2},
	}
	got := mergeTotals(base, extra)
	want := []repository.MetricTotal{
		{PerformerHandle: "zoe", Total: 10},
		{PerformerHandle: "adam", Total: 10},
		{PerformerHandle: "newbie", Total: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mergeTotals() = %v, want %v", got, want)
	}
}

func TestMergeTotalsEmptyBase(t *testing.T) {
	extra := []repository.MetricTotal{{PerformerHandle: "solo", Total: 7}}
	got := mergeTotals(nil, extra)
	if !reflect.DeepEqual(got, extra) {
		t.Errorf("mergeTotals(nil, extra) = %v, want %v", got, extra)
	}
}

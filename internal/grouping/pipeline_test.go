package grouping_test

import (
	"fmt"
	"reflect"
	"testing"

	"lightbox/internal/exposure"
	"lightbox/internal/grouping"
)

func TestPipelinePartitionAndOrderInvariants(t *testing.T) {
	// Three bursts separated by long gaps, fed out of order.
	var records []exposure.Record
	offsets := []float64{601, 0, 1, 600, 2, 1200, 3, 602, 1201, 4, 1202, 603}
	for i, offset := range offsets {
		records = append(records, shot(fmt.Sprintf("p%02d", i), offset, fnum(8), focal(35)))
	}

	groups := grouping.Pipeline(records, grouping.DefaultParams())
	if len(groups) != 3 {
		t.Fatalf("expected three groups, got %d", len(groups))
	}

	seen := make(map[string]int)
	total := 0
	for _, group := range groups {
		if len(group) == 0 {
			t.Fatal("empty group emitted")
		}
		for i, record := range group {
			seen[record.Path]++
			total++
			if i > 0 && group[i].Time.Before(group[i-1].Time) {
				t.Fatalf("group order violated at %s", record.Path)
			}
		}
	}
	if total != len(records) {
		t.Fatalf("expected %d records across groups, got %d", len(records), total)
	}
	for _, record := range records {
		if seen[record.Path] != 1 {
			t.Fatalf("record %s appeared %d times", record.Path, seen[record.Path])
		}
	}
}

func TestPipelineIsIdempotent(t *testing.T) {
	records := bracketRun(evRun(-2, -1, 0, 1, 2, 1, 0, -1, -2))
	params := grouping.DefaultParams()

	first := grouping.Pipeline(records, params)
	second := grouping.Pipeline(records, params)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical groups across runs")
	}
}

func TestPipelineDoesNotMutateInput(t *testing.T) {
	records := []exposure.Record{
		shot("b", 10),
		shot("a", 0),
	}
	grouping.Pipeline(records, grouping.DefaultParams())
	if records[0].Path != "b" || records[1].Path != "a" {
		t.Fatal("input slice was reordered")
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	if groups := grouping.Pipeline(nil, grouping.DefaultParams()); groups != nil {
		t.Fatalf("expected no groups for empty input, got %d", len(groups))
	}
}

func TestPipelineBracketScenario(t *testing.T) {
	// One five-shot HDR bracket at one-second spacing stays a single group.
	var records []exposure.Record
	for i, bias := range []float64{-2, -1, 0, 1, 2} {
		records = append(records, shot(fmt.Sprintf("h%d", i), float64(i), ev(bias), fnum(8), focal(35)))
	}
	groups := grouping.Pipeline(records, grouping.DefaultParams())
	if len(groups) != 1 || len(groups[0]) != 5 {
		t.Fatalf("expected one group of five, got sizes %v", clusterSizes(groups))
	}
}

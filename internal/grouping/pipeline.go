package grouping

import (
	"sort"

	"lightbox/internal/exposure"
)

// Pipeline runs the full grouping pass: sort records by capture time, cluster
// them, then split each cluster. The concatenation of the returned groups is
// exactly the input record set; the input slice is not modified.
func Pipeline(records []exposure.Record, params Params) [][]exposure.Record {
	if len(records) == 0 {
		return nil
	}
	ordered := make([]exposure.Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Time.Before(ordered[j].Time)
	})

	var groups [][]exposure.Record
	for _, cluster := range Cluster(ordered, params) {
		groups = append(groups, Split(cluster, params)...)
	}
	return groups
}

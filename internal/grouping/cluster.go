package grouping

import "lightbox/internal/exposure"

// Cluster scans time-ascending records and emits coarse clusters. A record
// joins the open cluster only when both the dynamic gap rule and the
// same-setup rule pass against the immediately preceding record, which allows
// gradual drift across a cluster while bounding any single step. Every record
// is placed; singleton clusters are legal.
func Cluster(records []exposure.Record, params Params) [][]exposure.Record {
	var clusters [][]exposure.Record
	var current []exposure.Record
	for _, record := range records {
		if len(current) == 0 {
			current = append(current, record)
			continue
		}
		prev := current[len(current)-1]
		if WithinGap(prev, record, params) && SameSetup(prev, record, params) {
			current = append(current, record)
			continue
		}
		clusters = append(clusters, current)
		current = []exposure.Record{record}
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}
	return clusters
}

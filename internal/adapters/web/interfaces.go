package web

import (
	"sort"

	"github.com/sasetz/psip-switch/internal/core/domain"
	"github.com/sasetz/psip-switch/internal/core/storage"
)

// sortedInterfaces returns the bound interfaces ordered by OS name, giving
// /interface/{id} a stable integer index to address them by even though
// domain.InterfaceID itself is not an integer and Go map iteration order is
// randomized.
func sortedInterfaces(agg *storage.Aggregate) []*domain.InterfaceRecord {
	recs := make([]*domain.InterfaceRecord, 0, len(agg.Interfaces))
	for _, rec := range agg.Interfaces {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID.OSName < recs[j].ID.OSName })
	return recs
}

package store

import (
	"encoding/json"

	"github.com/lib/pq"

	"urlshort/internal/domain"
)

// namedCountsJSON serializes a top-N list into the jsonb column shape
// used by the analytics summary tables.
func namedCountsJSON(counts []domain.NamedCount) []byte {
	b, err := json.Marshal(counts)
	if err != nil {
		return []byte("[]")
	}
	return b
}

// histogramArray adapts a fixed 24-bucket histogram into a Postgres
// bigint[] driver value.
func histogramArray(h [24]int64) interface{} {
	return pq.Array(h[:])
}

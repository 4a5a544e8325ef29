package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/fraudlens/fraudlens/internal/domain"
)

// RecordKey derives a stable cache key from a raw record by hashing
// its fields in sorted order. Two records with the same fields and
// values always produce the same key regardless of map iteration
// order.
func RecordKey(raw domain.RawRecord) string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v;", k, raw[k])
	}
	return "result:" + hex.EncodeToString(h.Sum(nil))
}

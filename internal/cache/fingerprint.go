package cache

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/FairForge/leadscore/internal/features"
)

// Fingerprint derives the cache key for one scoring computation. Any
// change to the lead, its features, the model version, or the assigned
// variant yields a new key, so invalidation falls out of the inputs.
func Fingerprint(leadID string, fv features.FeatureVector, modelVersion, variantID string) string {
	h := fnv.New64a()

	_, _ = fmt.Fprintf(h, "%s|%s|%s|", leadID, modelVersion, variantID)

	names := make([]string, 0, len(fv))
	for name := range fv {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(h, "%s=%.9f;", name, fv[name])
	}

	return fmt.Sprintf("%016x", h.Sum64())
}

package template

import (
	"sort"

	"github.com/customeros/outflow/internal/models"
)

// OrderForBatch returns a sorted copy: least-used first, quality as the
// tie-breaker. Batches then cycle the result by index modulo pool size so
// long runs spread sends evenly instead of exhausting the top template.
func OrderForBatch(pool []*models.EmailTemplate) []*models.EmailTemplate {
	ordered := make([]*models.EmailTemplate, len(pool))
	copy(ordered, pool)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].UsageCount != ordered[j].UsageCount {
			return ordered[i].UsageCount < ordered[j].UsageCount
		}
		return ordered[i].QualityScore > ordered[j].QualityScore
	})
	return ordered
}

package dispatch

import "github.com/swiftdrop/hub/core/model"

// MatchBest selects the candidate courier nearest to the job's origin by
// great-circle distance. Ties keep the earliest candidate in the slice, which
// is first-registration order when the slice comes from the registry; the
// tie-break is deterministic, not geographically meaningful. Returns false
// when there are no candidates. Pure function, no side effects.
func MatchBest(job *model.Job, candidates []model.Courier) (model.Courier, bool) {
	if len(candidates) == 0 {
		return model.Courier{}, false
	}
	best := candidates[0]
	bestDist := model.Haversine(job.Origin, best.Position)
	for _, c := range candidates[1:] {
		if d := model.Haversine(job.Origin, c.Position); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, true
}

// Package dedup classifies duplicate candidate groups and drives the admin
// review actions (merge, exception, legitimate, AI triage) against the
// backend.
package dedup

import (
	"github.com/pdy7080/kpop-ranker-sub000/internal/config"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// Classify derives a group's severity tier from its members.
//
// Only an exact duplicate within a single chart is Clear. Near matches such
// as "JUMP" and "JUMP (Prod. X)" are left for human review.
func Classify(members []models.DuplicateCandidate) models.Classification {
	if len(members) < 2 {
		return models.ClassLegitimate
	}

	first := members[0]
	for _, m := range members[1:] {
		if m.ChartName != first.ChartName {
			return models.ClassLegitimate
		}
	}

	for _, m := range members[1:] {
		if m.UnifiedArtist != first.UnifiedArtist ||
			m.UnifiedTrack != first.UnifiedTrack ||
			m.OriginalArtist != first.OriginalArtist ||
			m.OriginalTrack != first.OriginalTrack {
			return models.ClassReview
		}
	}
	return models.ClassClear
}

// Recommend returns the pre-selected action for a Clear group: every member
// selected, master chosen by policy. Other groups get no recommendation.
func Recommend(g models.DuplicateGroup, policy config.MasterPolicy) *models.Recommendation {
	if Classify(g.Members) != models.ClassClear {
		return nil
	}
	return &models.Recommendation{
		SelectedIDs: g.MemberIDs(),
		MasterID:    pickMaster(g.Members, policy).ID,
	}
}

// Annotate fills in the derived fields of g
func Annotate(g *models.DuplicateGroup, policy config.MasterPolicy) {
	g.Classification = Classify(g.Members)
	g.AutoRecommended = g.Classification == models.ClassClear
	g.Recommendation = Recommend(*g, policy)
}

func pickMaster(members []models.DuplicateCandidate, policy config.MasterPolicy) models.DuplicateCandidate {
	best := members[0]
	switch policy {
	case config.MasterEarliest:
		for _, m := range members[1:] {
			if m.CreatedAt.IsZero() {
				continue
			}
			if best.CreatedAt.IsZero() || m.CreatedAt.Before(best.CreatedAt) {
				best = m
			}
		}
	case config.MasterBestRank:
		for _, m := range members[1:] {
			if m.RankPosition <= 0 {
				continue
			}
			if best.RankPosition <= 0 || m.RankPosition < best.RankPosition {
				best = m
			}
		}
	}
	return best
}

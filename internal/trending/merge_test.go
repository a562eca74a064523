package trending

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
	"github.com/pdy7080/kpop-ranker-sub000/internal/testutil"
)

func TestMerge_PreservesResolvedImage(t *testing.T) {
	current := []models.TrendingTrack{testutil.TrendingTrack("NewJeans", "Supernatural", 90, "X")}
	incoming := []models.TrendingTrack{testutil.TrendingTrack("NewJeans", "Supernatural", 95, "")}

	once := Merge(current, incoming)
	assert.Equal(t, "X", once[0].ImageURL)
	assert.Equal(t, 95.0, once[0].Score, "other fields take the fresher value")

	twice := Merge(once, incoming)
	assert.Equal(t, once, twice)
}

func TestMerge_KeyIsCaseInsensitive(t *testing.T) {
	current := []models.TrendingTrack{testutil.TrendingTrack("aespa", "Supernova", 90, "X")}
	incoming := []models.TrendingTrack{testutil.TrendingTrack("AESPA", " supernova ", 91, "")}

	got := Merge(current, incoming)
	assert.Equal(t, "X", got[0].ImageURL)
	assert.Equal(t, "AESPA", got[0].Artist)
}

func TestMerge_IncomingImageWins(t *testing.T) {
	current := []models.TrendingTrack{testutil.TrendingTrack("IVE", "HEYA", 80, "old")}
	incoming := []models.TrendingTrack{testutil.TrendingTrack("IVE", "HEYA", 80, "new")}

	assert.Equal(t, "new", Merge(current, incoming)[0].ImageURL)
}

func TestMerge_FollowsIncomingOrderAndMembership(t *testing.T) {
	current := []models.TrendingTrack{
		testutil.TrendingTrack("A", "1", 10, "a"),
		testutil.TrendingTrack("B", "2", 9, "b"),
	}
	incoming := []models.TrendingTrack{
		testutil.TrendingTrack("C", "3", 12, ""),
		testutil.TrendingTrack("A", "1", 11, ""),
	}

	got := Merge(current, incoming)
	assert.Len(t, got, 2)
	assert.Equal(t, "C", got[0].Artist)
	assert.Equal(t, "", got[0].ImageURL)
	assert.Equal(t, "A", got[1].Artist)
	assert.Equal(t, "a", got[1].ImageURL)
}

func TestMerge_DoesNotAliasInput(t *testing.T) {
	incoming := []models.TrendingTrack{testutil.TrendingTrack("A", "1", 10, "")}
	got := Merge(nil, incoming)

	got[0].Charts["genie"] = 5
	_, leaked := incoming[0].Charts["genie"]
	assert.False(t, leaked)
}

package search

import (
	"testing"

	"github.com/alexanderramin/pathways/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRecords(t *testing.T) []PathwayRecord {
	t.Helper()
	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	return RecordsFrom(seed.PathwayPointers())
}

func TestMemory_NameMatchesRankFirst(t *testing.T) {
	m := NewMemory()
	m.Replace(defaultRecords(t))

	hits, total := m.Search("emergency", 0)
	require.NotEmpty(t, hits)
	assert.Equal(t, total, len(hits))
	for _, h := range hits {
		assert.Contains(t, h.ID, "rcem")
	}
}

func TestMemory_AllTermsMustMatch(t *testing.T) {
	m := NewMemory()
	m.Replace(defaultRecords(t))

	hits, _ := m.Search("ireland nchd", 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "ie-nchd-pathway", hits[0].ID)

	hits, _ = m.Search("ireland zebra", 10)
	assert.Empty(t, hits)
}

func TestMemory_RequirementNamesAreSearchable(t *testing.T) {
	m := NewMemory()
	m.Replace(defaultRecords(t))

	hits, _ := m.Search("plab", 10)
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	assert.Contains(t, ids, "mrcp-imt")
}

func TestMemory_LimitAndEmptyQuery(t *testing.T) {
	m := NewMemory()
	m.Replace(defaultRecords(t))

	hits, total := m.Search("uk", 2)
	assert.Len(t, hits, 2)
	assert.Greater(t, total, 2)

	hits, total = m.Search("   ", 5)
	assert.Empty(t, hits)
	assert.Zero(t, total)
}

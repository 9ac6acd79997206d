package repository_test

import (
	"context"
	"testing"

	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/repository"
	"github.com/alexanderramin/pathways/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathwayRepo_UpsertAndGet(t *testing.T) {
	repo := repository.NewSQLPathwayRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	p := testutil.NewIrishGPPathway()
	require.NoError(t, repo.Upsert(ctx, p))
	for _, r := range p.Requirements {
		assert.NotEmpty(t, r.DBID, "requirement %s should get a database id", r.Name)
	}

	got, err := repo.GetByID(ctx, "ie-gp")
	require.NoError(t, err)
	assert.Equal(t, "Irish GP Training", got.Name)
	assert.Equal(t, "Ireland", got.Country)
	require.Len(t, got.Requirements, 6)
	assert.Equal(t, "IMC Registration", got.Requirements[0].Name)
	assert.Equal(t, domain.CategoryRegistration, got.Requirements[0].Category)
	assert.Equal(t, []string{"OET"}, got.Requirements[1].Alternatives)
	assert.False(t, got.Requirements[5].Required)
	assert.Equal(t, p.Requirements[2].DBID, got.Requirements[2].DBID)
}

func TestPathwayRepo_UpsertKeepsRequirementIDs(t *testing.T) {
	repo := repository.NewSQLPathwayRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	p := testutil.NewIrishGPPathway()
	require.NoError(t, repo.Upsert(ctx, p))
	firstID := p.Requirements[0].DBID

	updated := testutil.NewIrishGPPathway()
	updated.Requirements[0].Description = "Register with the Irish Medical Council"
	updated.Requirements[0].Category = domain.CategoryDocument
	require.NoError(t, repo.Upsert(ctx, updated))

	got, err := repo.GetByID(ctx, "ie-gp")
	require.NoError(t, err)
	var imc domain.Requirement
	for _, r := range got.Requirements {
		if r.Name == "IMC Registration" {
			imc = r
		}
	}
	assert.Equal(t, firstID, imc.DBID)
	assert.Equal(t, domain.CategoryDocument, imc.Category)
	assert.Equal(t, "Register with the Irish Medical Council", imc.Description)
}

func TestPathwayRepo_List(t *testing.T) {
	repo := repository.NewSQLPathwayRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testutil.NewIrishGPPathway()))
	require.NoError(t, repo.Upsert(ctx, testutil.NewTestPathway("Australian AMC",
		testutil.WithPathwayID("au-amc"),
		testutil.WithRequirement("AMC MCQ", domain.CategoryExam),
	)))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Australian AMC", list[0].Name)
	assert.Len(t, list[0].Requirements, 1)
	assert.Len(t, list[1].Requirements, 6)
}

func TestPathwayRepo_GetMissing(t *testing.T) {
	repo := repository.NewSQLPathwayRepo(testutil.NewTestDB(t))
	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPathwayRepo_DeleteRequirement(t *testing.T) {
	repo := repository.NewSQLPathwayRepo(testutil.NewTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, testutil.NewIrishGPPathway()))

	require.NoError(t, repo.DeleteRequirement(ctx, "ie-gp", "PRES"))
	assert.ErrorIs(t, repo.DeleteRequirement(ctx, "ie-gp", "PRES"), repository.ErrNotFound)

	got, err := repo.GetByID(ctx, "ie-gp")
	require.NoError(t, err)
	assert.Len(t, got.Requirements, 5)
}

package intelligence

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/llm"
	"github.com/alexanderramin/pathways/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	saved []*domain.Pathway
	err   error
}

func (s *recordingSaver) Save(_ context.Context, p *domain.Pathway) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, p)
	return nil
}

const refreshedIrishGP = "```json\n" + `{
  "milestones": [
    {"name": "imc registration", "description": "Register with the Irish Medical Council", "category": "Registration", "is_required": true, "display_order": 1, "resource_url": "https://www.medicalcouncil.ie"},
    {"name": "IELTS", "description": "", "category": "Language", "is_required": true, "display_order": 2},
    {"name": "ICGP Membership", "description": "Join the college", "category": "certifications", "is_required": true, "display_order": 7}
  ],
  "disclaimer": "Check with the regulator."
}` + "\n```"

func irishGPWithIDs() *domain.Pathway {
	p := testutil.NewIrishGPPathway()
	for i := range p.Requirements {
		p.Requirements[i].DBID = "db-" + p.Requirements[i].Name
	}
	return p
}

func TestMilestoneDraft_RefreshMergesByName(t *testing.T) {
	client := &fakeClient{text: refreshedIrishGP}
	saver := &recordingSaver{}
	svc := NewMilestoneDraftService(client, saver)

	res, err := svc.Refresh(context.Background(), RefreshRequest{Pathway: irishGPWithIDs(), Specialty: "General Practice"})
	require.NoError(t, err)

	assert.Equal(t, Diff{Added: 1, Updated: 1, Unchanged: 1}, res.Diff)
	assert.Equal(t, "Check with the regulator.", res.Disclaimer)
	assert.True(t, res.Stored)
	require.Len(t, saver.saved, 1)

	merged := res.Pathway
	assert.Len(t, merged.Requirements, 7, "refresh never removes requirements")

	imc, ok := merged.RequirementByName("IMC Registration")
	require.True(t, ok, "matched requirement keeps its catalog name")
	assert.Equal(t, "db-IMC Registration", imc.DBID)
	assert.Equal(t, "https://www.medicalcouncil.ie", imc.ResourceURL)

	icgp, ok := merged.RequirementByName("ICGP Membership")
	require.True(t, ok)
	assert.Equal(t, domain.CategoryCertification, icgp.Category)
	assert.Equal(t, 7, icgp.Order, "new requirements go after the highest order")
	assert.Empty(t, icgp.DBID)

	req := client.last()
	assert.Equal(t, llm.TaskMilestones, req.Task)
	assert.Contains(t, req.UserPrompt, "Specialty: General Practice")
	assert.Contains(t, req.UserPrompt, "- MRCGP (Exam)")
}

func TestMilestoneDraft_NoChangesSkipsSave(t *testing.T) {
	client := &fakeClient{text: `{"milestones":[{"name":"PRES","category":"Exam","is_required":true,"display_order":3}]}`}
	saver := &recordingSaver{}

	res, err := NewMilestoneDraftService(client, saver).Refresh(context.Background(), RefreshRequest{Pathway: irishGPWithIDs()})
	require.NoError(t, err)
	assert.Equal(t, Diff{Unchanged: 1}, res.Diff)
	assert.False(t, res.Stored)
	assert.Empty(t, saver.saved)
}

func TestMilestoneDraft_SyntheticPathwayIsNotSaved(t *testing.T) {
	client := &fakeClient{text: `{"milestones":[{"name":"DHA License","category":"registration","is_required":true,"display_order":1}]}`}
	saver := &recordingSaver{}

	res, err := NewMilestoneDraftService(client, saver).Refresh(context.Background(),
		RefreshRequest{Pathway: domain.NewSyntheticPathway("Locum in Dubai")})
	require.NoError(t, err)
	assert.False(t, res.Stored)
	assert.Empty(t, saver.saved)
	require.Len(t, res.Generated, 1)
	assert.Equal(t, domain.CategoryRegistration, res.Generated[0].Category)
}

func TestMilestoneDraft_RejectsInvalidOutput(t *testing.T) {
	for name, text := range map[string]string{
		"empty list": `{"milestones":[]}`,
		"blank name": `{"milestones":[{"name":"  ","category":"Exam"}]}`,
		"duplicates": `{"milestones":[{"name":"PLAB 1"},{"name":"plab 1"}]}`,
		"prose":      "Sorry, I cannot help with that.",
	} {
		t.Run(name, func(t *testing.T) {
			saver := &recordingSaver{}
			_, err := NewMilestoneDraftService(&fakeClient{text: text}, saver).Refresh(context.Background(),
				RefreshRequest{Pathway: irishGPWithIDs()})
			assert.ErrorIs(t, err, llm.ErrInvalidOutput)
			assert.Empty(t, saver.saved)
		})
	}
}

func TestMilestoneDraft_PropagatesErrors(t *testing.T) {
	_, err := NewMilestoneDraftService(&fakeClient{err: llm.ErrRateLimited}, nil).Refresh(context.Background(),
		RefreshRequest{Pathway: irishGPWithIDs()})
	assert.ErrorIs(t, err, llm.ErrRateLimited)

	saveErr := errors.New("disk full")
	_, err = NewMilestoneDraftService(&fakeClient{text: refreshedIrishGP}, &recordingSaver{err: saveErr}).Refresh(context.Background(),
		RefreshRequest{Pathway: irishGPWithIDs()})
	assert.ErrorIs(t, err, saveErr)

	_, err = NewMilestoneDraftService(&fakeClient{}, nil).Refresh(context.Background(), RefreshRequest{})
	assert.Error(t, err)
}

func TestMergeRequirements_DoesNotMutateInput(t *testing.T) {
	p := irishGPWithIDs()
	_, diff := MergeRequirements(p, []domain.Requirement{
		{Name: "PRES", Category: domain.CategoryExam, Required: false},
		{Name: "Induction", Category: domain.CategoryTraining, Required: true},
	})
	assert.Equal(t, Diff{Added: 1, Updated: 1}, diff)
	assert.Len(t, p.Requirements, 6)
	pres, _ := p.RequirementByName("PRES")
	assert.True(t, pres.Required)
}

package service

import (
	"testing"

	"github.com/alexanderramin/pathways/internal/contract"
	"github.com/alexanderramin/pathways/internal/domain"
	"github.com/alexanderramin/pathways/internal/progress"
	"github.com/alexanderramin/pathways/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle_CyclesStandardStatus(t *testing.T) {
	h := newHarness(t, following("ie-gp"))

	assert.Equal(t, domain.ItemInProgress, h.toggle(t, "PRES").Status)
	assert.Equal(t, domain.ItemCompleted, h.toggle(t, "PRES").Status)

	card := h.card(t)
	item, ok := findItem(card.Items, "PRES")
	require.True(t, ok)
	assert.Equal(t, domain.ItemCompleted, item.Status)
	assert.Equal(t, 20, card.Progress.PercentComplete)

	pres := card.Progress.Completed
	require.Len(t, pres, 1)
	row, err := h.milestones.Get(h.ctx, "u1", pres[0].DBID)
	require.NoError(t, err)
	assert.Equal(t, domain.MilestoneDone, row.Status)
	assert.NotNil(t, row.CompletedAt)

	assert.Equal(t, domain.ItemPending, h.toggle(t, "PRES").Status)
	row, err = h.milestones.Get(h.ctx, "u1", pres[0].DBID)
	require.NoError(t, err)
	assert.Equal(t, domain.MilestoneTodo, row.Status)
	assert.Nil(t, row.CompletedAt)
}

// A row stored under an id the catalog no longer uses is not what the card
// shows, so toggling starts from pending.
func TestToggle_StartsFromDisplayedStatus(t *testing.T) {
	h := newHarness(t, following("ie-gp"))
	require.NoError(t, h.milestones.UserMilestoneRepo.Upsert(h.ctx, &domain.UserMilestoneStatus{
		ID:            "row-legacy",
		UserID:        "u1",
		MilestoneID:   "legacy-pres",
		MilestoneName: "PRES",
		Status:        domain.MilestoneInProgress,
	}))

	item, ok := findItem(h.card(t).Items, "PRES")
	require.True(t, ok)
	assert.Equal(t, domain.ItemPending, item.Status)

	assert.Equal(t, domain.ItemInProgress, h.toggle(t, "PRES").Status)
	item, _ = findItem(h.card(t).Items, "PRES")
	assert.Equal(t, domain.ItemInProgress, item.Status)
}

func TestToggle_UpdatesSingleRow(t *testing.T) {
	h := newHarness(t, following("ie-gp"))
	h.toggle(t, "IELTS")
	h.toggle(t, "IELTS")
	h.toggle(t, "IELTS")

	rows, err := h.milestones.ListByUser(h.ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestToggle_Custom(t *testing.T) {
	cm := testutil.NewTestCustomMilestone("Book flights", "ie-gp")
	h := newHarness(t, []testutil.ProfileOption{
		testutil.WithPathwayRefs("ie-gp"),
		testutil.WithCustomMilestone(cm),
	})

	res, err := h.milestone.Toggle(h.ctx, contract.ToggleRequest{UserID: "u1", CustomID: cm.ID})
	require.NoError(t, err)
	assert.Equal(t, cm.ID, res.ItemID)
	assert.Equal(t, domain.ItemCompleted, res.Status)

	stored := h.stored(t)
	require.Len(t, stored.CustomMilestones, 1)
	assert.True(t, stored.CustomMilestones[0].Completed)

	card := h.card(t)
	assert.Equal(t, 0, card.Progress.PercentComplete, "custom items never move the percentage")
}

func TestToggle_Errors(t *testing.T) {
	h := newHarness(t, following("ie-gp"))

	_, err := h.milestone.Toggle(h.ctx, contract.ToggleRequest{UserID: "u1", PathwayID: "ie-gp"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.milestone.Toggle(h.ctx, contract.ToggleRequest{PathwayID: "ie-gp", MilestoneName: "PRES"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.milestone.Toggle(h.ctx, contract.ToggleRequest{UserID: "u1", PathwayID: "ie-gp", MilestoneName: "USMLE"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.milestone.Toggle(h.ctx, contract.ToggleRequest{UserID: "u1", PathwayID: "uk-fy", MilestoneName: "PRES"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.milestone.Toggle(h.ctx, contract.ToggleRequest{UserID: "u1", CustomID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHideUnhide(t *testing.T) {
	h := newHarness(t, following("ie-gp"))
	req := contract.VisibilityRequest{UserID: "u1", PathwayID: "ie-gp", Name: "IELTS"}

	require.NoError(t, h.milestone.Hide(h.ctx, req))
	card := h.card(t)
	assert.NotContains(t, itemIDs(card.Items), "IELTS")
	require.Len(t, card.Hidden, 1)
	assert.Equal(t, "IELTS", card.Hidden[0].Name)
	assert.Equal(t, []string{"IELTS"}, h.stored(t).ConfigFor("ie-gp").HiddenMilestones)

	writes := h.profiles.Writes.Load()
	require.NoError(t, h.milestone.Hide(h.ctx, req))
	assert.Equal(t, writes, h.profiles.Writes.Load(), "hiding twice does not write")

	require.NoError(t, h.milestone.Unhide(h.ctx, req))
	card = h.card(t)
	assert.Contains(t, itemIDs(card.Items), "IELTS")
	assert.Empty(t, card.Hidden)
}

func TestUnhideAll(t *testing.T) {
	h := newHarness(t, following("ie-gp"))
	for _, name := range []string{"IELTS", "PRES", "MRCGP"} {
		require.NoError(t, h.milestone.Hide(h.ctx, contract.VisibilityRequest{UserID: "u1", PathwayID: "ie-gp", Name: name}))
	}
	assert.Len(t, h.card(t).Items, 2)

	require.NoError(t, h.milestone.UnhideAll(h.ctx, contract.VisibilityRequest{UserID: "u1", PathwayID: "ie-gp"}))
	card := h.card(t)
	assert.Len(t, card.Items, 5)
	assert.Empty(t, h.stored(t).ConfigFor("ie-gp").HiddenMilestones)
}

func TestHide_Rejections(t *testing.T) {
	cm := testutil.NewTestCustomMilestone("Book flights", "ie-gp")
	h := newHarness(t, []testutil.ProfileOption{
		testutil.WithPathwayRefs("ie-gp"),
		testutil.WithCustomMilestone(cm),
	})

	err := h.milestone.Hide(h.ctx, contract.VisibilityRequest{UserID: "u1", PathwayID: "ie-gp", Name: cm.ID})
	assert.ErrorIs(t, err, ErrValidation)

	err = h.milestone.Hide(h.ctx, contract.VisibilityRequest{UserID: "u1", PathwayID: "ie-gp", Name: "USMLE"})
	assert.ErrorIs(t, err, ErrNotFound)

	err = h.milestone.Hide(h.ctx, contract.VisibilityRequest{UserID: "u1", PathwayID: "ie-gp"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, h.profiles.Writes.Load())
}

func TestRename_StandardOverride(t *testing.T) {
	h := newHarness(t, following("ie-gp"))
	rename := func(name string) {
		require.NoError(t, h.milestone.Rename(h.ctx, contract.RenameRequest{
			UserID: "u1", PathwayID: "ie-gp", ItemID: "PRES", Name: name,
		}))
	}

	rename("  Pre-Registration Exam  ")
	item, _ := findItem(h.card(t).Items, "PRES")
	assert.Equal(t, "Pre-Registration Exam", item.Name)
	assert.Equal(t, "PRES", item.OriginalID)
	assert.Equal(t, "Pre-Registration Exam", h.stored(t).ConfigFor("ie-gp").MilestoneOverrides["PRES"])

	writes := h.profiles.Writes.Load()
	rename("")
	rename("Pre-Registration Exam")
	assert.Equal(t, writes, h.profiles.Writes.Load(), "empty and unchanged names do not write")

	rename("PRES")
	item, _ = findItem(h.card(t).Items, "PRES")
	assert.Equal(t, "PRES", item.Name)
	_, ok := h.stored(t).ConfigFor("ie-gp").MilestoneOverrides["PRES"]
	assert.False(t, ok, "renaming back to the catalog name drops the override")
}

func TestRename_Custom(t *testing.T) {
	cm := testutil.NewTestCustomMilestone("Book flights", "ie-gp")
	h := newHarness(t, []testutil.ProfileOption{
		testutil.WithPathwayRefs("ie-gp"),
		testutil.WithCustomMilestone(cm),
	})

	require.NoError(t, h.milestone.Rename(h.ctx, contract.RenameRequest{
		UserID: "u1", ItemID: cm.ID, Custom: true, Name: "Book flights to Dublin",
	}))
	assert.Equal(t, "Book flights to Dublin", h.stored(t).CustomMilestones[0].Name)

	err := h.milestone.Rename(h.ctx, contract.RenameRequest{UserID: "u1", ItemID: "missing", Custom: true, Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorder_WithinCategory(t *testing.T) {
	h := newHarness(t, following("ie-gp"))
	assert.Equal(t,
		[]string{"IMC Registration", "IELTS", "PRES", "MRCGP", "Certificate of Good Standing"},
		itemIDs(h.card(t).Items))

	require.NoError(t, h.milestone.Reorder(h.ctx, contract.ReorderRequest{
		UserID: "u1", PathwayID: "ie-gp", ActiveID: "MRCGP", OverID: "PRES",
	}))

	want := []string{"IMC Registration", "IELTS", "MRCGP", "PRES", "Certificate of Good Standing"}
	card := h.card(t)
	assert.Equal(t, want, itemIDs(card.Items))
	assert.Equal(t, want, h.stored(t).ConfigFor("ie-gp").MilestoneOrder)

	require.Len(t, card.Sections, 4)
	assert.Equal(t, domain.CategoryExam, card.Sections[2].Category)
	assert.Equal(t, []string{"MRCGP", "PRES"}, itemIDs(card.Sections[2].Items))
}

func TestReorder_CrossCategoryRejected(t *testing.T) {
	h := newHarness(t, following("ie-gp"))

	err := h.milestone.Reorder(h.ctx, contract.ReorderRequest{
		UserID: "u1", PathwayID: "ie-gp", ActiveID: "IMC Registration", OverID: "PRES",
	})
	assert.ErrorIs(t, err, progress.ErrCrossCategory)
	assert.Zero(t, h.profiles.Writes.Load())
	assert.Empty(t, h.snapshot(t).Profile.ConfigFor("ie-gp").MilestoneOrder)
}

func TestReorder_DropOnSelfIsNoop(t *testing.T) {
	h := newHarness(t, following("ie-gp"))
	require.NoError(t, h.milestone.Reorder(h.ctx, contract.ReorderRequest{
		UserID: "u1", PathwayID: "ie-gp", ActiveID: "PRES", OverID: "PRES",
	}))
	assert.Zero(t, h.profiles.Writes.Load())
	assert.Equal(t, true, h.observer.last().Fields["noop"])
}

func TestReorder_CustomAmongStandard(t *testing.T) {
	h := newHarness(t, following("ie-gp"))
	cm, err := h.milestone.AddCustom(h.ctx, contract.AddCustomRequest{
		UserID: "u1", PathwayRef: "ie-gp", Name: "Mock exam", Category: "exams",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.CategoryExam), cm.Category)

	require.NoError(t, h.milestone.Reorder(h.ctx, contract.ReorderRequest{
		UserID: "u1", PathwayID: "ie-gp", ActiveID: cm.ID, OverID: "PRES",
	}))
	card := h.card(t)
	assert.Equal(t, []string{cm.ID, "PRES", "MRCGP"}, itemIDs(card.Sections[2].Items))
}

func TestAddAndDeleteCustom(t *testing.T) {
	h := newHarness(t, following("ie-gp"))

	cm, err := h.milestone.AddCustom(h.ctx, contract.AddCustomRequest{
		UserID: "u1", PathwayRef: "ie-gp", Name: "  Find housing ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Find housing", cm.Name)
	assert.Equal(t, string(domain.CategoryCustom), cm.Category)

	card := h.card(t)
	item, ok := findItem(card.Items, cm.ID)
	require.True(t, ok)
	assert.Equal(t, domain.ItemCustom, item.Type)
	assert.Equal(t, domain.CategoryCustom, card.Sections[len(card.Sections)-1].Category)
	assert.Len(t, h.stored(t).CustomMilestones, 1)

	require.NoError(t, h.milestone.DeleteCustom(h.ctx, contract.DeleteCustomRequest{UserID: "u1", CustomID: cm.ID}))
	_, ok = findItem(h.card(t).Items, cm.ID)
	assert.False(t, ok)
	assert.Empty(t, h.stored(t).CustomMilestones)

	err = h.milestone.DeleteCustom(h.ctx, contract.DeleteCustomRequest{UserID: "u1", CustomID: cm.ID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddCustom_Validation(t *testing.T) {
	h := newHarness(t, following("ie-gp"))

	_, err := h.milestone.AddCustom(h.ctx, contract.AddCustomRequest{UserID: "u1", PathwayRef: "ie-gp", Name: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.milestone.AddCustom(h.ctx, contract.AddCustomRequest{UserID: "u1", Name: "Find housing"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, h.profiles.Writes.Load())
}

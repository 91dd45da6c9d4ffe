package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentloop/rentloop-backend/internal/models"
)

func activeImage(id uint, order int, primary bool) models.ListingImage {
	return models.ListingImage{
		ID:           id,
		ListingID:    1,
		DisplayOrder: order,
		IsPrimary:    primary,
		Readiness:    models.ImageReady,
		ObjectKey:    fmt.Sprintf("listings/1/img-%d.jpg", id),
		ThumbKey:     fmt.Sprintf("listings/1/img-%d-thumb.jpg", id),
	}
}

func pendingImage(id uint, order int, primary bool) models.ListingImage {
	img := activeImage(id, order, primary)
	img.PendingApproval = true
	return img
}

func targetIDs(res *ReconcileResult) []uint {
	ids := make([]uint, 0, len(res.TargetActive))
	for _, img := range res.TargetActive {
		ids = append(ids, img.ID)
	}
	return ids
}

func uintPtr(v uint) *uint {
	return &v
}

func TestReconcileApprovesAddition(t *testing.T) {
	current := []models.ListingImage{
		activeImage(1, 0, true),
		activeImage(2, 1, false),
		pendingImage(3, 2, false),
	}

	res, err := Reconcile(current, []uint{3}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []ImageWrite{{Kind: WriteClearPendingApproval, ImageID: 3}}, res.Writes)
	assert.Equal(t, []uint{1, 2, 3}, targetIDs(res))
	assert.True(t, res.TargetActive[0].IsPrimary)
	assert.Empty(t, res.Removed)
}

func TestReconcileFlaggedAdditionDemotesCurrentPrimary(t *testing.T) {
	current := []models.ListingImage{
		activeImage(1, 0, true),
		activeImage(2, 1, false),
		pendingImage(3, 2, true),
	}

	res, err := Reconcile(current, []uint{3}, nil, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []ImageWrite{
		{Kind: WriteClearPrimary, ImageID: 1},
		{Kind: WriteClearPendingApproval, ImageID: 3},
	}, res.Writes)

	// The new primary leads the target set, the demoted image keeps its
	// place in display order behind it.
	assert.Equal(t, []uint{3, 1, 2}, targetIDs(res))
	assert.True(t, res.TargetActive[0].IsPrimary)
	assert.False(t, res.TargetActive[1].IsPrimary)
}

func TestReconcileDeletePrimaryWithReprimary(t *testing.T) {
	current := []models.ListingImage{
		activeImage(1, 0, true),
		activeImage(2, 1, false),
	}

	res, err := Reconcile(current, nil, []uint{1}, uintPtr(2))
	require.NoError(t, err)

	// The deleted image leaves the active set through the soft delete
	// alone; no demotion write for it.
	assert.ElementsMatch(t, []ImageWrite{
		{Kind: WriteSoftDelete, ImageID: 1},
		{Kind: WriteSetPrimary, ImageID: 2},
	}, res.Writes)

	assert.Equal(t, []uint{2}, targetIDs(res))
	require.Len(t, res.Removed, 1)
	assert.Equal(t, uint(1), res.Removed[0].ID)
	assert.Equal(t, "listings/1/img-1.jpg", res.Removed[0].ObjectKey)
}

func TestReconcileDeletePrimaryAutoPromotes(t *testing.T) {
	current := []models.ListingImage{
		activeImage(1, 0, true),
		activeImage(2, 2, false),
		activeImage(3, 1, false),
	}

	res, err := Reconcile(current, nil, []uint{1}, nil)
	require.NoError(t, err)

	// Lowest display order among the survivors wins.
	assert.ElementsMatch(t, []ImageWrite{
		{Kind: WriteSoftDelete, ImageID: 1},
		{Kind: WriteSetPrimary, ImageID: 3},
	}, res.Writes)
	assert.Equal(t, []uint{3, 2}, targetIDs(res))
}

func TestReconcileAutoPromoteBreaksTiesByID(t *testing.T) {
	current := []models.ListingImage{
		activeImage(5, 0, true),
		activeImage(9, 1, false),
		activeImage(7, 1, false),
	}

	res, err := Reconcile(current, nil, []uint{5}, nil)
	require.NoError(t, err)

	assert.Contains(t, res.Writes, ImageWrite{Kind: WriteSetPrimary, ImageID: 7})
	assert.Equal(t, []uint{7, 9}, targetIDs(res))
}

func TestReconcileExplicitPrimaryWinsOverFlaggedAddition(t *testing.T) {
	current := []models.ListingImage{
		activeImage(1, 0, true),
		activeImage(2, 1, false),
		pendingImage(3, 2, true),
	}

	res, err := Reconcile(current, []uint{3}, nil, uintPtr(2))
	require.NoError(t, err)

	assert.ElementsMatch(t, []ImageWrite{
		{Kind: WriteClearPrimary, ImageID: 1},
		{Kind: WriteClearPrimary, ImageID: 3},
		{Kind: WriteClearPendingApproval, ImageID: 3},
		{Kind: WriteSetPrimary, ImageID: 2},
	}, res.Writes)
	assert.Equal(t, []uint{2, 1, 3}, targetIDs(res))
}

func TestReconcileDeleteAllImages(t *testing.T) {
	current := []models.ListingImage{
		activeImage(1, 0, true),
		activeImage(2, 1, false),
	}

	res, err := Reconcile(current, nil, []uint{1, 2}, nil)
	require.NoError(t, err)

	assert.Empty(t, res.TargetActive)
	assert.Len(t, res.Removed, 2)
	for _, w := range res.Writes {
		assert.NotEqual(t, WriteSetPrimary, w.Kind)
	}
}

func TestReconcileDuplicateIDsCollapse(t *testing.T) {
	current := []models.ListingImage{
		activeImage(1, 0, true),
		activeImage(2, 1, false),
	}

	res, err := Reconcile(current, nil, []uint{2, 2, 2}, nil)
	require.NoError(t, err)

	assert.Equal(t, []ImageWrite{{Kind: WriteSoftDelete, ImageID: 2}}, res.Writes)
	assert.Len(t, res.Removed, 1)
}

func TestReconcileNoChangesNoWrites(t *testing.T) {
	current := []models.ListingImage{
		activeImage(1, 0, true),
		activeImage(2, 1, false),
	}

	res, err := Reconcile(current, nil, nil, nil)
	require.NoError(t, err)

	assert.Empty(t, res.Writes)
	assert.Equal(t, []uint{1, 2}, targetIDs(res))
}

func TestReconcileValidationFailures(t *testing.T) {
	quarantined := activeImage(4, 3, false)
	quarantined.Readiness = models.ImageQuarantined

	deleted := activeImage(5, 4, false)
	deleted.SoftDeleted = true

	current := []models.ListingImage{
		activeImage(1, 0, true),
		activeImage(2, 1, false),
		pendingImage(3, 2, false),
		quarantined,
		deleted,
		pendingImage(6, 5, true),
		pendingImage(7, 6, true),
	}

	tests := []struct {
		name         string
		addIDs       []uint
		deleteIDs    []uint
		newPrimaryID *uint
		wantErr      error
	}{
		{
			name:      "delete unknown image",
			deleteIDs: []uint{99},
			wantErr:   ErrUnknownImageReference,
		},
		{
			name:      "delete already deleted image",
			deleteIDs: []uint{5},
			wantErr:   ErrUnknownImageReference,
		},
		{
			name:    "add unknown image",
			addIDs:  []uint{99},
			wantErr: ErrUnknownImageReference,
		},
		{
			name:    "add quarantined image",
			addIDs:  []uint{4},
			wantErr: ErrUnknownImageReference,
		},
		{
			name:    "two additions flagged primary",
			addIDs:  []uint{6, 7},
			wantErr: ErrAmbiguousPrimary,
		},
		{
			name:         "re-primary an image deleted in the same request",
			deleteIDs:    []uint{2},
			newPrimaryID: uintPtr(2),
			wantErr:      ErrInvalidPrimaryTarget,
		},
		{
			name:         "re-primary unknown image",
			newPrimaryID: uintPtr(99),
			wantErr:      ErrInvalidPrimaryTarget,
		},
		{
			name:         "re-primary quarantined image",
			newPrimaryID: uintPtr(4),
			wantErr:      ErrInvalidPrimaryTarget,
		},
		{
			name:         "re-primary pending image not in additions",
			newPrimaryID: uintPtr(3),
			wantErr:      ErrInvalidPrimaryTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Reconcile(current, tt.addIDs, tt.deleteIDs, tt.newPrimaryID)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
		})
	}
}

func TestReconcileReprimaryPendingImageAddedInSameRequest(t *testing.T) {
	current := []models.ListingImage{
		activeImage(1, 0, true),
		pendingImage(3, 2, false),
	}

	res, err := Reconcile(current, []uint{3}, nil, uintPtr(3))
	require.NoError(t, err)

	assert.ElementsMatch(t, []ImageWrite{
		{Kind: WriteClearPrimary, ImageID: 1},
		{Kind: WriteClearPendingApproval, ImageID: 3},
		{Kind: WriteSetPrimary, ImageID: 3},
	}, res.Writes)
	assert.Equal(t, []uint{3, 1}, targetIDs(res))
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	current := []models.ListingImage{
		activeImage(1, 0, true),
		pendingImage(2, 1, false),
	}

	_, err := Reconcile(current, []uint{2}, nil, nil)
	require.NoError(t, err)

	assert.True(t, current[0].IsPrimary)
	assert.True(t, current[1].PendingApproval)
}

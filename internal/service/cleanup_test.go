package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/rentloop/rentloop-backend/internal/models"
)

func TestCleanerDeletesOriginalAndThumbnail(t *testing.T) {
	storage := newFakeStorage()
	cleaner := NewCleaner(storage, zap.NewNop())

	cleaner.Run(context.Background(), []models.ListingImage{
		{ID: 1, ObjectKey: "a.jpg", ThumbKey: "a-thumb.jpg"},
		{ID: 2, ObjectKey: "b.jpg"},
	})

	assert.ElementsMatch(t, []string{"a.jpg", "a-thumb.jpg", "b.jpg"}, storage.deletedKeys())
}

func TestCleanerContinuesPastFailures(t *testing.T) {
	storage := newFakeStorage()
	storage.failKeys["a.jpg"] = true
	cleaner := NewCleaner(storage, zap.NewNop())

	cleaner.Run(context.Background(), []models.ListingImage{
		{ID: 1, ObjectKey: "a.jpg", ThumbKey: "a-thumb.jpg"},
		{ID: 2, ObjectKey: "b.jpg"},
	})

	// The failed key stays where it is; everything after it is still tried.
	assert.ElementsMatch(t, []string{"a-thumb.jpg", "b.jpg"}, storage.deletedKeys())
}

func TestCleanerNothingToRemove(t *testing.T) {
	storage := newFakeStorage()
	cleaner := NewCleaner(storage, zap.NewNop())

	cleaner.Run(context.Background(), nil)

	assert.Empty(t, storage.deletedKeys())
}

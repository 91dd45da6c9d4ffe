package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rentloop/rentloop-backend/internal/models"
	"github.com/rentloop/rentloop-backend/pkg/storage"
)

// cleanupTimeout bounds the storage deletes of one approval.
const cleanupTimeout = 30 * time.Second

// Cleaner removes binary objects behind soft-deleted image records. It runs
// strictly after the approval's writes committed: a leaked object is
// harmless, a record pointing at a missing object is not, so deletion must
// never precede the commit. Failures are logged, never retried inline, and
// never surfaced to the caller.
type Cleaner struct {
	storage storage.ObjectStorage
	logger  *zap.Logger
}

func NewCleaner(objectStorage storage.ObjectStorage, logger *zap.Logger) *Cleaner {
	return &Cleaner{
		storage: objectStorage,
		logger:  logger,
	}
}

// Run deletes the original and thumbnail objects of every removed image.
// Best-effort: each key is attempted regardless of earlier failures.
func (c *Cleaner) Run(ctx context.Context, removed []models.ListingImage) {
	if len(removed) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	deleted := 0
	for _, img := range removed {
		for _, key := range []string{img.ObjectKey, img.ThumbKey} {
			if key == "" {
				continue
			}
			if err := c.storage.Delete(ctx, key); err != nil {
				c.logger.Warn("leaked storage object, not deleted",
					zap.Uint("image_id", img.ID),
					zap.Uint("listing_id", img.ListingID),
					zap.String("key", key),
					zap.Error(err))
				continue
			}
			deleted++
		}
	}

	c.logger.Info("cleaned up removed image objects",
		zap.Int("images", len(removed)),
		zap.Int("objects_deleted", deleted))
}

package storage

import (
	"context"

	"github.com/your-org/liftlog/internal/models"
)

// Store is implemented by PostgresStore and MemoryStore.
type Store interface {
	Ping(ctx context.Context) error
	Close()

	UpsertIdentity(ctx context.Context, id models.Identity) error
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	// ApplyPBUpdate writes upd only if the stored version still equals
	// expectedVersion, otherwise it returns ErrVersionConflict.
	ApplyPBUpdate(ctx context.Context, uid string, expectedVersion int64, upd models.PBUpdate) error
	ListProfiles(ctx context.Context, q models.ProfileQuery) ([]models.UserProfile, error)

	CreateVideo(ctx context.Context, v *models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	ListVideos(ctx context.Context, limit int) ([]models.Video, error)
	SetVideoThumbnail(ctx context.Context, id, thumbnail string) error
	MarkVideoPB(ctx context.Context, id string) error
	SetVideoStatus(ctx context.Context, id string, status models.VideoStatus) error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

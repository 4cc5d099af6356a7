package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/liftlog/internal/models"
)

// contractStore is the surface both backends share.
type contractStore interface {
	UpsertIdentity(ctx context.Context, id models.Identity) error
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	ApplyPBUpdate(ctx context.Context, uid string, expectedVersion int64, upd models.PBUpdate) error
	ListProfiles(ctx context.Context, q models.ProfileQuery) ([]models.UserProfile, error)
	CreateVideo(ctx context.Context, v *models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	ListVideos(ctx context.Context, limit int) ([]models.Video, error)
	SetVideoThumbnail(ctx context.Context, id, thumbnail string) error
	MarkVideoPB(ctx context.Context, id string) error
	SetVideoStatus(ctx context.Context, id string, status models.VideoStatus) error
}

func bests(squat, bench, deadlift float64) models.PersonalBests {
	return models.PersonalBests{
		Squat:    models.LiftBest{WeightKg: squat, VideoRef: "sq"},
		Bench:    models.LiftBest{WeightKg: bench, VideoRef: "bp"},
		Deadlift: models.LiftBest{WeightKg: deadlift, VideoRef: "dl"},
		Total:    &models.TotalBest{WeightKg: squat + bench + deadlift},
	}
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) contractStore) {
	t.Run("missing profile reads as nil", func(t *testing.T) {
		s := newStore(t)
		p, err := s.GetProfile(context.Background(), "ghost")
		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("identity upsert creates zero bests and keeps them on refresh", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.UpsertIdentity(ctx, models.Identity{UID: "u1", Email: "a@b.c", DisplayName: "Ann"}))

		p, err := s.GetProfile(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, p)
		require.Equal(t, "Ann", p.DisplayName)
		require.Equal(t, int64(0), p.Version)
		require.NotNil(t, p.PersonalBests.Total)
		require.Zero(t, p.PersonalBests.Total.WeightKg)

		require.NoError(t, s.ApplyPBUpdate(ctx, "u1", 0, models.PBUpdate{PersonalBests: bests(100, 0, 0)}))
		require.NoError(t, s.UpsertIdentity(ctx, models.Identity{UID: "u1", DisplayName: "Ann B", PhotoURL: "p.png"}))

		p, err = s.GetProfile(ctx, "u1")
		require.NoError(t, err)
		require.Equal(t, "Ann B", p.DisplayName)
		require.Equal(t, "p.png", p.PhotoURL)
		require.Equal(t, 100.0, p.PersonalBests.Squat.WeightKg)
		require.Equal(t, int64(1), p.Version)
	})

	t.Run("pb update is conditional on version", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		male := models.SexMale
		wc := 93.0

		require.NoError(t, s.ApplyPBUpdate(ctx, "u2", 0, models.PBUpdate{PersonalBests: bests(150, 0, 0), Sex: &male, WeightClass: &wc}))
		require.ErrorIs(t, s.ApplyPBUpdate(ctx, "u2", 0, models.PBUpdate{PersonalBests: bests(160, 0, 0)}), ErrVersionConflict)
		require.NoError(t, s.ApplyPBUpdate(ctx, "u2", 1, models.PBUpdate{PersonalBests: bests(150, 100, 0)}))

		p, err := s.GetProfile(ctx, "u2")
		require.NoError(t, err)
		require.Equal(t, int64(2), p.Version)
		require.Equal(t, 150.0, p.PersonalBests.Squat.WeightKg)
		require.Equal(t, 100.0, p.PersonalBests.Bench.WeightKg)
		require.Equal(t, 250.0, p.PersonalBests.Total.WeightKg)
		require.Equal(t, models.SexMale, p.Sex, "sex kept when not supplied")
		require.Equal(t, 93.0, p.WeightClass)
	})

	t.Run("list profiles filters and limits", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		m, f := models.SexMale, models.SexFemale
		c74, c63 := 74.0, 63.0
		require.NoError(t, s.ApplyPBUpdate(ctx, "a", 0, models.PBUpdate{PersonalBests: bests(200, 150, 150), Sex: &m, WeightClass: &c74}))
		require.NoError(t, s.ApplyPBUpdate(ctx, "b", 0, models.PBUpdate{PersonalBests: bests(100, 50, 120), Sex: &f, WeightClass: &c63}))
		require.NoError(t, s.ApplyPBUpdate(ctx, "c", 0, models.PBUpdate{PersonalBests: bests(120, 80, 100), Sex: &m, WeightClass: &c74}))

		all, err := s.ListProfiles(ctx, models.ProfileQuery{Limit: 10})
		require.NoError(t, err)
		require.Len(t, all, 3)

		males, err := s.ListProfiles(ctx, models.ProfileQuery{Sex: &m, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, []string{"a", "c"}, uids(males))

		women63, err := s.ListProfiles(ctx, models.ProfileQuery{Sex: &f, WeightClass: &c63, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, []string{"b"}, uids(women63))

		limited, err := s.ListProfiles(ctx, models.ProfileQuery{Limit: 2})
		require.NoError(t, err)
		require.Len(t, limited, 2)
	})

	t.Run("videos round trip with owner display data", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.UpsertIdentity(ctx, models.Identity{UID: "u3", DisplayName: "Cam", PhotoURL: "cam.png"}))

		v := &models.Video{
			ID: "u3-1700000000000", UID: "u3", Filename: "u3-1700000000000.mp4",
			Title: "Squat day", LiftType: models.LiftSquat, Sex: models.SexMale, WeightClass: 83, WeightKg: 180,
		}
		require.NoError(t, s.CreateVideo(ctx, v))
		require.Equal(t, models.VideoStatusProcessing, v.Status)
		require.ErrorIs(t, s.CreateVideo(ctx, &models.Video{ID: v.ID, UID: "u3", Filename: v.Filename, LiftType: models.LiftSquat, WeightKg: 1}), ErrAlreadyExists)

		require.NoError(t, s.SetVideoThumbnail(ctx, v.ID, "u3-1700000000000.png"))
		require.NoError(t, s.MarkVideoPB(ctx, v.ID))
		require.NoError(t, s.SetVideoStatus(ctx, v.ID, models.VideoStatusProcessed))
		require.ErrorIs(t, s.SetVideoStatus(ctx, "nope", models.VideoStatusProcessed), ErrNotFound)

		got, err := s.GetVideo(ctx, v.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, "u3-1700000000000.png", got.Thumbnail)
		require.True(t, got.IsPB)
		require.Equal(t, models.VideoStatusProcessed, got.Status)
		require.Equal(t, models.LiftSquat, got.LiftType)
		require.Equal(t, "Cam", got.DisplayName)
		require.Equal(t, "cam.png", got.PhotoURL)

		missing, err := s.GetVideo(ctx, "nope")
		require.NoError(t, err)
		require.Nil(t, missing)

		list, err := s.ListVideos(ctx, 5)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, v.ID, list[0].ID)
	})
}

func uids(ps []models.UserProfile) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.UID)
	}
	return out
}

package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/your-org/liftlog/internal/models"
)

// MemoryStore keeps profiles and videos in process memory. It follows the
// same version rules as PostgresStore and backs local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.UserProfile
	videos   map[string]models.Video
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]models.UserProfile),
		videos:   make(map[string]models.Video),
		now:      time.Now,
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) UpsertIdentity(ctx context.Context, id models.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, ok := s.profiles[id.UID]
	if !ok {
		p = models.UserProfile{
			UID:           id.UID,
			PersonalBests: models.ZeroPersonalBests(),
			CreatedAt:     now,
		}
	}
	p.Email = id.Email
	p.DisplayName = id.DisplayName
	p.PhotoURL = id.PhotoURL
	p.UpdatedAt = now
	s.profiles[id.UID] = p
	return nil
}

func (s *MemoryStore) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[uid]
	if !ok {
		return nil, nil
	}
	return cloneProfile(p), nil
}

func (s *MemoryStore) ApplyPBUpdate(ctx context.Context, uid string, expectedVersion int64, upd models.PBUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, ok := s.profiles[uid]
	if !ok {
		p = models.UserProfile{UID: uid, CreatedAt: now}
	}
	if p.Version != expectedVersion {
		return ErrVersionConflict
	}

	p.PersonalBests = clonePersonalBests(upd.PersonalBests)
	if upd.Sex != nil {
		p.Sex = *upd.Sex
	}
	if upd.WeightClass != nil {
		p.WeightClass = *upd.WeightClass
	}
	p.Version++
	p.UpdatedAt = now
	s.profiles[uid] = p
	return nil
}

func (s *MemoryStore) ListProfiles(ctx context.Context, q models.ProfileQuery) ([]models.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	uids := make([]string, 0, len(s.profiles))
	for uid, p := range s.profiles {
		if q.Sex != nil && p.Sex != *q.Sex {
			continue
		}
		if q.WeightClass != nil && p.WeightClass != *q.WeightClass {
			continue
		}
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	if q.Limit >= 0 && len(uids) > q.Limit {
		uids = uids[:q.Limit]
	}

	out := make([]models.UserProfile, 0, len(uids))
	for _, uid := range uids {
		out = append(out, *cloneProfile(s.profiles[uid]))
	}
	return out, nil
}

func (s *MemoryStore) CreateVideo(ctx context.Context, v *models.Video) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[v.ID]; ok {
		return ErrAlreadyExists
	}
	if v.Status == "" {
		v.Status = models.VideoStatusProcessing
	}
	v.CreatedAt = s.now()
	v.UpdatedAt = v.CreatedAt
	stored := *v
	stored.DisplayName, stored.PhotoURL = "", ""
	s.videos[v.ID] = stored
	return nil
}

func (s *MemoryStore) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.videos[id]
	if !ok {
		return nil, nil
	}
	v = s.withOwner(v)
	return &v, nil
}

func (s *MemoryStore) ListVideos(ctx context.Context, limit int) ([]models.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Video, 0, len(s.videos))
	for _, v := range s.videos {
		out = append(out, s.withOwner(v))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SetVideoThumbnail(ctx context.Context, id, thumbnail string) error {
	return s.updateVideo(ctx, id, func(v *models.Video) { v.Thumbnail = thumbnail })
}

func (s *MemoryStore) MarkVideoPB(ctx context.Context, id string) error {
	return s.updateVideo(ctx, id, func(v *models.Video) { v.IsPB = true })
}

func (s *MemoryStore) SetVideoStatus(ctx context.Context, id string, status models.VideoStatus) error {
	return s.updateVideo(ctx, id, func(v *models.Video) { v.Status = status })
}

func (s *MemoryStore) updateVideo(ctx context.Context, id string, fn func(*models.Video)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.videos[id]
	if !ok {
		return ErrNotFound
	}
	fn(&v)
	v.UpdatedAt = s.now()
	s.videos[id] = v
	return nil
}

// withOwner must be called with s.mu held.
func (s *MemoryStore) withOwner(v models.Video) models.Video {
	if p, ok := s.profiles[v.UID]; ok {
		v.DisplayName = p.DisplayName
		v.PhotoURL = p.PhotoURL
	}
	return v
}

func cloneProfile(p models.UserProfile) *models.UserProfile {
	p.PersonalBests = clonePersonalBests(p.PersonalBests)
	return &p
}

func clonePersonalBests(pb models.PersonalBests) models.PersonalBests {
	if pb.Total != nil {
		t := *pb.Total
		pb.Total = &t
	}
	return pb
}

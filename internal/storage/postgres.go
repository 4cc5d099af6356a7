package storage

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/liftlog/internal/config"
	"github.com/your-org/liftlog/internal/models"
)

//go:embed schema.sql
var schemaSQL string

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	return newPostgresStore(ctx, cfg.DSN(), cfg.MaxConns)
}

func newPostgresStore(ctx context.Context, dsn string, maxConns int) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema. Statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// --- Users ---

const profileColumns = `uid, email, display_name, photo_url, sex, weight_class, personal_bests, version, created_at, updated_at`

func scanProfile(row scanner) (*models.UserProfile, error) {
	var (
		p   models.UserProfile
		sex string
		pbs []byte
	)
	if err := row.Scan(&p.UID, &p.Email, &p.DisplayName, &p.PhotoURL, &sex, &p.WeightClass,
		&pbs, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Sex = models.Sex(sex)
	if len(pbs) > 0 {
		if err := json.Unmarshal(pbs, &p.PersonalBests); err != nil {
			return nil, fmt.Errorf("decode personal bests for %s: %w", p.UID, err)
		}
	}
	return &p, nil
}

// UpsertIdentity creates the profile with zero bests, or refreshes the
// display fields of an existing one. Bests and version are never touched.
func (s *PostgresStore) UpsertIdentity(ctx context.Context, id models.Identity) error {
	pbs, err := json.Marshal(models.ZeroPersonalBests())
	if err != nil {
		return fmt.Errorf("marshal personal bests: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO users (uid, email, display_name, photo_url, personal_bests)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (uid) DO UPDATE SET
		   email = EXCLUDED.email,
		   display_name = EXCLUDED.display_name,
		   photo_url = EXCLUDED.photo_url,
		   updated_at = now()`,
		id.UID, id.Email, id.DisplayName, id.PhotoURL, pbs,
	)
	if err != nil {
		return fmt.Errorf("upsert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	p, err := scanProfile(s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM users WHERE uid = $1`, uid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// ApplyPBUpdate writes new bests if the stored version still equals
// expectedVersion, bumping it. A missing row counts as version 0.
// Returns ErrVersionConflict when another writer got there first.
func (s *PostgresStore) ApplyPBUpdate(ctx context.Context, uid string, expectedVersion int64, upd models.PBUpdate) error {
	pbs, err := json.Marshal(upd.PersonalBests)
	if err != nil {
		return fmt.Errorf("marshal personal bests: %w", err)
	}

	var sex *string
	if upd.Sex != nil {
		v := string(*upd.Sex)
		sex = &v
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO users (uid, personal_bests, sex, weight_class, version)
		 VALUES ($1, $2, COALESCE($3::text, ''), COALESCE($4::double precision, 0), 1)
		 ON CONFLICT (uid) DO UPDATE SET
		   personal_bests = EXCLUDED.personal_bests,
		   sex = COALESCE($3::text, users.sex),
		   weight_class = COALESCE($4::double precision, users.weight_class),
		   version = users.version + 1,
		   updated_at = now()
		 WHERE users.version = $5`,
		uid, pbs, sex, upd.WeightClass, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("apply pb update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

// ListProfiles returns up to q.Limit profiles matching the equality
// filters, ordered by uid.
func (s *PostgresStore) ListProfiles(ctx context.Context, q models.ProfileQuery) ([]models.UserProfile, error) {
	var sex *string
	if q.Sex != nil {
		v := string(*q.Sex)
		sex = &v
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM users
		 WHERE ($1::text IS NULL OR sex = $1)
		   AND ($2::double precision IS NULL OR weight_class = $2)
		 ORDER BY uid
		 LIMIT $3`,
		sex, q.WeightClass, q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// --- Videos ---

const videoSelect = `SELECT v.id, v.uid, v.filename, v.thumbnail, v.title, v.description,
	v.lift_type, v.sex, v.weight_class, v.weight_kg, v.is_pb, v.status, v.created_at, v.updated_at,
	COALESCE(u.display_name, ''), COALESCE(u.photo_url, '')
	FROM videos v LEFT JOIN users u ON u.uid = v.uid`

func scanVideo(row scanner) (*models.Video, error) {
	var (
		v                     models.Video
		liftType, sex, status string
	)
	if err := row.Scan(&v.ID, &v.UID, &v.Filename, &v.Thumbnail, &v.Title, &v.Description,
		&liftType, &sex, &v.WeightClass, &v.WeightKg, &v.IsPB, &status, &v.CreatedAt, &v.UpdatedAt,
		&v.DisplayName, &v.PhotoURL); err != nil {
		return nil, err
	}
	v.LiftType = models.LiftType(liftType)
	v.Sex = models.Sex(sex)
	v.Status = models.VideoStatus(status)
	return &v, nil
}

// CreateVideo inserts a new video. Returns ErrAlreadyExists if the id is taken.
func (s *PostgresStore) CreateVideo(ctx context.Context, v *models.Video) error {
	if v.Status == "" {
		v.Status = models.VideoStatusProcessing
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO videos (id, uid, filename, thumbnail, title, description, lift_type, sex, weight_class, weight_kg, is_pb, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO NOTHING
		 RETURNING created_at, updated_at`,
		v.ID, v.UID, v.Filename, v.Thumbnail, v.Title, v.Description,
		string(v.LiftType), string(v.Sex), v.WeightClass, v.WeightKg, v.IsPB, string(v.Status),
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	v, err := scanVideo(s.pool.QueryRow(ctx, videoSelect+` WHERE v.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

// ListVideos returns the newest videos first.
func (s *PostgresStore) ListVideos(ctx context.Context, limit int) ([]models.Video, error) {
	rows, err := s.pool.Query(ctx, videoSelect+` ORDER BY v.created_at DESC, v.id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

func (s *PostgresStore) SetVideoThumbnail(ctx context.Context, id, thumbnail string) error {
	return s.updateVideo(ctx, "set video thumbnail",
		`UPDATE videos SET thumbnail = $2, updated_at = now() WHERE id = $1`, id, thumbnail)
}

func (s *PostgresStore) MarkVideoPB(ctx context.Context, id string) error {
	return s.updateVideo(ctx, "mark video pb",
		`UPDATE videos SET is_pb = true, updated_at = now() WHERE id = $1`, id)
}

func (s *PostgresStore) SetVideoStatus(ctx context.Context, id string, status models.VideoStatus) error {
	return s.updateVideo(ctx, "set video status",
		`UPDATE videos SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
}

func (s *PostgresStore) updateVideo(ctx context.Context, op, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

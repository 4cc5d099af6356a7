package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/your-org/liftlog/internal/models"
	"github.com/your-org/liftlog/internal/observability"
)

var ErrInvalidFilter = errors.New("invalid leaderboard filter")

const driftTolerance = 1e-6

type ProfileLister interface {
	ListProfiles(ctx context.Context, q models.ProfileQuery) ([]models.UserProfile, error)
}

// Projector turns stored profiles into leaderboard rows. Row order is left
// to the caller.
type Projector struct {
	store       ProfileLister
	defaultTopN int
	maxTopN     int
}

type ProjectorOption func(*Projector)

// WithTopN sets the fetch limit used when none is given and the upper bound
// applied to requested limits.
func WithTopN(defaultTopN, maxTopN int) ProjectorOption {
	return func(p *Projector) {
		if defaultTopN > 0 {
			p.defaultTopN = defaultTopN
		}
		if maxTopN > 0 {
			p.maxTopN = maxTopN
		}
	}
}

func NewProjector(store ProfileLister, opts ...ProjectorOption) *Projector {
	p := &Projector{store: store, defaultTopN: 100, maxTopN: 1000}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Query resolves a filter into the store query, applying the topN defaults.
func (p *Projector) Query(f models.LeaderboardFilter) (models.ProfileQuery, error) {
	q := models.ProfileQuery{Limit: f.TopN}
	if q.Limit <= 0 {
		q.Limit = p.defaultTopN
	}
	if q.Limit > p.maxTopN {
		q.Limit = p.maxTopN
	}

	switch s := strings.ToUpper(strings.TrimSpace(f.Sex)); s {
	case "", models.SexAll:
	case string(models.SexMale), string(models.SexFemale):
		sex := models.Sex(s)
		q.Sex = &sex
	default:
		return models.ProfileQuery{}, fmt.Errorf("%w: sex %q", ErrInvalidFilter, f.Sex)
	}

	if f.WeightClass != nil {
		if *f.WeightClass < 0 || math.IsNaN(*f.WeightClass) || math.IsInf(*f.WeightClass, 0) {
			return models.ProfileQuery{}, fmt.Errorf("%w: weight class %v", ErrInvalidFilter, *f.WeightClass)
		}
		wc := *f.WeightClass
		q.WeightClass = &wc
	}
	return q, nil
}

// Project fetches up to topN matching profiles and maps each to a row.
// Rows with a zero total are dropped unless IncludeZeros is set, so fewer
// than topN rows may come back.
func (p *Projector) Project(ctx context.Context, f models.LeaderboardFilter) ([]models.LeaderboardRow, error) {
	q, err := p.Query(f)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "ranking.Project", trace.WithAttributes(
		attribute.String("liftlog.sex", f.Sex),
		attribute.Int("liftlog.limit", q.Limit),
	))
	defer span.End()

	profiles, err := p.store.ListProfiles(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	rows := make([]models.LeaderboardRow, 0, len(profiles))
	for _, prof := range profiles {
		row, drifted := toRow(prof)
		if drifted {
			observability.LeaderboardDrift.Inc()
		}
		if row.TotalKg == 0 && !f.IncludeZeros {
			continue
		}
		rows = append(rows, row)
	}

	span.SetAttributes(attribute.Int("liftlog.rows", len(rows)))
	observability.LeaderboardRows.Observe(float64(len(rows)))
	return rows, nil
}

// TotalOf returns the total for pb. The cached TOTAL is trusted only when
// it matches the lift sum; otherwise the sum is used and drifted is true.
func TotalOf(pb models.PersonalBests) (total float64, drifted bool) {
	sum := pb.LiftSum()
	if pb.Total == nil {
		return sum, false
	}
	if math.Abs(pb.Total.WeightKg-sum) > driftTolerance {
		return sum, true
	}
	return pb.Total.WeightKg, false
}

// ToRow projects one profile without touching metrics.
func ToRow(p models.UserProfile) models.LeaderboardRow {
	row, _ := toRow(p)
	return row
}

func toRow(p models.UserProfile) (models.LeaderboardRow, bool) {
	pb := p.PersonalBests
	total, drifted := TotalOf(pb)

	return models.LeaderboardRow{
		UID:         p.UID,
		Name:        p.Name(),
		Sex:         p.Sex,
		WeightClass: p.WeightClass,
		SquatKg:     pb.Squat.WeightKg,
		BenchKg:     pb.Bench.WeightKg,
		DeadliftKg:  pb.Deadlift.WeightKg,
		TotalKg:     total,
		Video: models.LeaderboardVideos{
			Squat:    pb.Squat.VideoRef,
			Bench:    pb.Bench.VideoRef,
			Deadlift: pb.Deadlift.VideoRef,
		},
	}, drifted
}

// Package ranking holds the personal best rules and the leaderboard read model.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/your-org/liftlog/internal/models"
	"github.com/your-org/liftlog/internal/observability"
	"github.com/your-org/liftlog/internal/storage"
)

var tracer = otel.Tracer("github.com/your-org/liftlog/internal/ranking")

var (
	ErrMissingUser   = errors.New("missing user id")
	ErrInvalidLift   = errors.New("invalid lift type")
	ErrInvalidWeight = errors.New("weight must be a positive number")
	// ErrConflict is returned when concurrent writers kept winning the race
	// for the same profile until the attempt budget ran out.
	ErrConflict = errors.New("personal best update conflict")
)

// ProfileStore is the per-user read and conditional write the aggregator needs.
type ProfileStore interface {
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	ApplyPBUpdate(ctx context.Context, uid string, expectedVersion int64, upd models.PBUpdate) error
}

type LiftInput struct {
	UID      string
	LiftType models.LiftType
	WeightKg float64
	VideoRef string
	// Optional; written only alongside a new personal best.
	Sex         *models.Sex
	WeightClass *float64
}

type LiftResult struct {
	IsPB       bool
	TotalKg    float64
	PreviousKg float64
}

// Evaluate applies the personal best rule to a snapshot. A lift is a new
// best only when strictly heavier than the previous one. The returned bests
// are only meaningful when the result is a PB.
func Evaluate(current models.PersonalBests, in LiftInput) (LiftResult, models.PersonalBests) {
	previous := current.Lift(in.LiftType).WeightKg
	if !(in.WeightKg > previous) {
		return LiftResult{IsPB: false, TotalKg: current.LiftSum(), PreviousKg: previous}, current
	}

	next := current
	next.SetLift(in.LiftType, models.LiftBest{WeightKg: in.WeightKg, VideoRef: in.VideoRef})
	total := next.LiftSum()
	next.Total = &models.TotalBest{WeightKg: total}
	return LiftResult{IsPB: true, TotalKg: total, PreviousKg: previous}, next
}

type Aggregator struct {
	store       ProfileStore
	maxAttempts int
}

type AggregatorOption func(*Aggregator)

// WithMaxAttempts bounds how many times a conflicting update is re-evaluated.
func WithMaxAttempts(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

func NewAggregator(store ProfileStore, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{store: store, maxAttempts: 5}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func validateLift(in LiftInput) error {
	if in.UID == "" {
		return ErrMissingUser
	}
	if _, ok := models.ParseLiftType(string(in.LiftType)); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLift, in.LiftType)
	}
	if !models.ValidWeight(in.WeightKg) {
		return ErrInvalidWeight
	}
	return nil
}

// RecordLift reads the user's bests, decides whether the lift is a new
// personal best and, if so, writes the new bests conditionally on the
// version it read. When another writer changed the profile in between, the
// decision is recomputed from a fresh read.
func (a *Aggregator) RecordLift(ctx context.Context, in LiftInput) (LiftResult, error) {
	if err := validateLift(in); err != nil {
		return LiftResult{}, err
	}

	ctx, span := tracer.Start(ctx, "ranking.RecordLift", trace.WithAttributes(
		attribute.String("liftlog.uid", in.UID),
		attribute.String("liftlog.lift", string(in.LiftType)),
		attribute.Float64("liftlog.weight_kg", in.WeightKg),
	))
	defer span.End()

	start := time.Now()
	defer func() { observability.PBUpdateDuration.Observe(time.Since(start).Seconds()) }()

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		res, err := a.tryRecord(ctx, in)
		if err == nil {
			span.SetAttributes(attribute.Bool("liftlog.is_pb", res.IsPB), attribute.Int("liftlog.attempts", attempt))
			if res.IsPB {
				observability.PersonalBests.WithLabelValues(string(in.LiftType)).Inc()
			}
			return res, nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "record lift failed")
			return LiftResult{}, err
		}
		observability.PBConflicts.Inc()
		slog.Debug("personal best update conflict, re-reading", "uid", in.UID, "lift", in.LiftType, "attempt", attempt)
	}

	span.SetStatus(codes.Error, "conflict")
	return LiftResult{}, fmt.Errorf("%w: uid %s after %d attempts", ErrConflict, in.UID, a.maxAttempts)
}

func (a *Aggregator) tryRecord(ctx context.Context, in LiftInput) (LiftResult, error) {
	profile, err := a.store.GetProfile(ctx, in.UID)
	if err != nil {
		return LiftResult{}, fmt.Errorf("read profile: %w", err)
	}

	current := models.ZeroPersonalBests()
	var version int64
	if profile != nil {
		current = profile.PersonalBests
		version = profile.Version
	}

	res, next := Evaluate(current, in)
	if !res.IsPB {
		return res, nil
	}

	err = a.store.ApplyPBUpdate(ctx, in.UID, version, models.PBUpdate{
		PersonalBests: next,
		Sex:           in.Sex,
		WeightClass:   in.WeightClass,
	})
	if err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			return LiftResult{}, err
		}
		return LiftResult{}, fmt.Errorf("write personal bests: %w", err)
	}
	return res, nil
}

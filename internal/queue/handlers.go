package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/liftlog/internal/models"
	"github.com/your-org/liftlog/internal/observability"
	"github.com/your-org/liftlog/internal/storage"
)

type VideoStatusSetter interface {
	SetVideoStatus(ctx context.Context, id string, status models.VideoStatus) error
}

type IdentityUpserter interface {
	UpsertIdentity(ctx context.Context, id models.Identity) error
}

// subjectRoot drops the trailing token (the uid) of a subject for metric labels.
func subjectRoot(subject string) string {
	if i := strings.LastIndex(subject, "."); i > 0 {
		return subject[:i]
	}
	return subject
}

// decode unmarshals the payload. A malformed payload is logged and counted
// and reported as not ok; redelivery would not fix it, so callers ack it.
func decode(msg jetstream.Msg, v any) bool {
	if err := json.Unmarshal(msg.Data(), v); err != nil {
		slog.Warn("drop malformed message", "subject", msg.Subject(), "error", err)
		observability.QueueMessages.WithLabelValues(subjectRoot(msg.Subject()), "malformed").Inc()
		return false
	}
	return true
}

func observe(msg jetstream.Msg, result string) {
	observability.QueueMessages.WithLabelValues(subjectRoot(msg.Subject()), result).Inc()
}

// HandleVideoProcessed marks a video processed when the transcoder is done.
func HandleVideoProcessed(store VideoStatusSetter) MessageHandler {
	return func(ctx context.Context, msg jetstream.Msg) error {
		var evt VideoProcessed
		if !decode(msg, &evt) {
			return nil
		}

		id := evt.ID
		if id == "" && evt.Filename != "" {
			var err error
			if id, _, err = models.ParseVideoFilename(evt.Filename); err != nil {
				slog.Warn("drop video processed event", "filename", evt.Filename, "error", err)
				observe(msg, "malformed")
				return nil
			}
		}
		if id == "" {
			slog.Warn("drop video processed event without id", "subject", msg.Subject())
			observe(msg, "malformed")
			return nil
		}

		if err := store.SetVideoStatus(ctx, id, models.VideoStatusProcessed); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				slog.Warn("processed video not found", "video_id", id)
				observe(msg, "not_found")
				return nil
			}
			observe(msg, "error")
			return err
		}
		slog.Info("video processed", "video_id", id)
		observe(msg, "ok")
		return nil
	}
}

// HandleUserCreated initializes a profile for a new account.
func HandleUserCreated(store IdentityUpserter) MessageHandler {
	return func(ctx context.Context, msg jetstream.Msg) error {
		var id models.Identity
		if !decode(msg, &id) {
			return nil
		}
		if id.UID == "" {
			slog.Warn("drop user created event without uid", "subject", msg.Subject())
			observe(msg, "malformed")
			return nil
		}

		if err := store.UpsertIdentity(ctx, id); err != nil {
			observe(msg, "error")
			return err
		}
		slog.Info("user profile initialized", "uid", id.UID)
		observe(msg, "ok")
		return nil
	}
}

// HandlePersonalBest passes personal best notifications to fn.
func HandlePersonalBest(fn func(PersonalBest)) MessageHandler {
	return func(_ context.Context, msg jetstream.Msg) error {
		var evt PersonalBest
		if !decode(msg, &evt) {
			return nil
		}
		fn(evt)
		observe(msg, "ok")
		return nil
	}
}

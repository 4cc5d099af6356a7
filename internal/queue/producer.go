package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	VideosStreamName        = "VIDEOS"
	VideosSubjectBase       = "videos"
	VideoUploadedSubject    = VideosSubjectBase + ".uploaded"
	VideoProcessedSubject   = VideosSubjectBase + ".processed"
	IdentityStreamName      = "IDENTITY"
	IdentitySubjectBase     = "identity"
	UserCreatedSubject      = IdentitySubjectBase + ".users.created"
	LeaderboardStreamName   = "LEADERBOARD"
	LeaderboardSubjectBase  = "leaderboard"
	PersonalBestSubjectBase = LeaderboardSubjectBase + ".personal_bests"
)

type Producer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func connect(natsURL string) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("liftlog-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create jetstream context: %w", err)
	}
	return nc, js, nil
}

func NewProducer(natsURL string) (*Producer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Producer{nc: nc, js: js}, nil
}

// EnsureStreams creates JetStream streams if they don't exist.
// Retries up to 30 times (1s apart) to handle NATS startup delay.
func (p *Producer) EnsureStreams(ctx context.Context) error {
	streams := []jetstream.StreamConfig{
		{
			Name:        VideosStreamName,
			Subjects:    []string{VideosSubjectBase + ".>"},
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      7 * 24 * time.Hour,
			Storage:     jetstream.FileStorage,
			Duplicates:  2 * time.Minute,
			Description: "Video uploads for the transcoder and its status updates",
		},
		{
			Name:        IdentityStreamName,
			Subjects:    []string{IdentitySubjectBase + ".>"},
			Retention:   jetstream.WorkQueuePolicy,
			MaxAge:      7 * 24 * time.Hour,
			Storage:     jetstream.FileStorage,
			Duplicates:  2 * time.Minute,
			Description: "Account lifecycle events from the identity provider",
		},
		{
			Name:        LeaderboardStreamName,
			Subjects:    []string{LeaderboardSubjectBase + ".>"},
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      time.Hour,
			MaxMsgs:     100000,
			Storage:     jetstream.MemoryStorage,
			Discard:     jetstream.DiscardOld,
			Description: "Personal best notifications for live leaderboards",
		},
	}

	const maxAttempts = 30
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		allOK := true
		for _, cfg := range streams {
			opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_, err := p.js.CreateOrUpdateStream(opCtx, cfg)
			cancel()
			if err != nil {
				allOK = false
				if attempt == maxAttempts {
					return fmt.Errorf("create stream %s: %w (after %d attempts)", cfg.Name, err, maxAttempts)
				}
				slog.Warn("ensure NATS stream (retrying...)", "name", cfg.Name, "attempt", attempt, "error", err)
				break
			}
			slog.Info("ensured NATS stream", "name", cfg.Name)
		}
		if allOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return nil
}

func (p *Producer) publish(ctx context.Context, subject, msgID string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}

	var opts []jetstream.PublishOpt
	if msgID != "" {
		opts = append(opts, jetstream.WithMsgID(msgID))
	}
	if _, err := p.js.Publish(ctx, subject, payload, opts...); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// PublishVideoUploaded hands a saved video to the transcoder. The video id
// doubles as the dedupe id.
func (p *Producer) PublishVideoUploaded(ctx context.Context, evt VideoUploaded) error {
	return p.publish(ctx, fmt.Sprintf("%s.%s", VideoUploadedSubject, evt.UID), evt.VideoID, evt)
}

// PublishPersonalBest notifies every API instance of a new personal best.
func (p *Producer) PublishPersonalBest(ctx context.Context, evt PersonalBest) error {
	return p.publish(ctx, fmt.Sprintf("%s.%s", PersonalBestSubjectBase, evt.UID), "", evt)
}

func (p *Producer) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Producer) Close() {
	p.nc.Close()
}

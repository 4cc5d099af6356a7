package queue

import (
	"context"
	"log/slog"
)

// LocalPublisher stands in for the Producer when no NATS server is
// configured. Personal bests go straight to onPersonalBest; upload events
// are only logged since there is no transcoder to receive them.
type LocalPublisher struct {
	onPersonalBest func(PersonalBest)
}

func NewLocalPublisher(onPersonalBest func(PersonalBest)) *LocalPublisher {
	return &LocalPublisher{onPersonalBest: onPersonalBest}
}

func (p *LocalPublisher) PublishVideoUploaded(_ context.Context, evt VideoUploaded) error {
	slog.Debug("video uploaded (no transcoder attached)", "video_id", evt.VideoID)
	return nil
}

func (p *LocalPublisher) PublishPersonalBest(_ context.Context, evt PersonalBest) error {
	if p.onPersonalBest != nil {
		p.onPersonalBest(evt)
	}
	return nil
}

// Package submission saves lift videos and feeds them to the personal best
// aggregator.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/your-org/liftlog/internal/apperr"
	"github.com/your-org/liftlog/internal/models"
	"github.com/your-org/liftlog/internal/observability"
	"github.com/your-org/liftlog/internal/queue"
	"github.com/your-org/liftlog/internal/ranking"
	"github.com/your-org/liftlog/internal/storage"
)

type VideoStore interface {
	CreateVideo(ctx context.Context, v *models.Video) error
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	MarkVideoPB(ctx context.Context, id string) error
	SetVideoThumbnail(ctx context.Context, id, thumbnail string) error
}

type LiftRecorder interface {
	RecordLift(ctx context.Context, in ranking.LiftInput) (ranking.LiftResult, error)
}

type Publisher interface {
	PublishVideoUploaded(ctx context.Context, evt queue.VideoUploaded) error
	PublishPersonalBest(ctx context.Context, evt queue.PersonalBest) error
}

// Caller is the authenticated user making the request.
type Caller struct {
	UID  string
	Name string
}

type SaveInput struct {
	Filename    string
	Title       string
	Description string
	LiftType    string
	Sex         string
	WeightClass *float64
	WeightKg    *float64
}

type SaveResult struct {
	Message string
	VideoID string
	IsPB    bool
	TotalKg float64
}

type Service struct {
	videos    VideoStore
	recorder  LiftRecorder
	publisher Publisher
	now       func() time.Time
}

func NewService(videos VideoStore, recorder LiftRecorder, publisher Publisher) *Service {
	return &Service{videos: videos, recorder: recorder, publisher: publisher, now: time.Now}
}

type validated struct {
	videoID     string
	liftType    models.LiftType
	sex         models.Sex
	weightClass *float64
	weightKg    float64
}

func validate(caller Caller, in SaveInput) (validated, error) {
	var v validated
	if caller.UID == "" {
		return v, apperr.FailedPrecondition("sign in required")
	}
	if strings.TrimSpace(in.Filename) == "" {
		return v, apperr.InvalidArgument("filename is required")
	}
	if strings.TrimSpace(in.LiftType) == "" {
		return v, apperr.InvalidArgument("liftType is required")
	}
	lt, ok := models.ParseLiftType(in.LiftType)
	if !ok {
		return v, apperr.InvalidArgument("liftType must be SQUAT, BENCH or DEADLIFT")
	}
	if in.WeightKg == nil || !models.ValidWeight(*in.WeightKg) {
		return v, apperr.InvalidArgument("weightKg must be a positive number")
	}
	sex, ok := models.ParseSex(in.Sex)
	if !ok {
		return v, apperr.InvalidArgument("sex must be M or F")
	}
	if wc := in.WeightClass; wc != nil && (*wc < 0 || math.IsNaN(*wc) || math.IsInf(*wc, 0)) {
		return v, apperr.InvalidArgument("weightClass must be a non-negative number")
	}

	id, owner, err := models.ParseVideoFilename(in.Filename)
	if err != nil {
		return v, apperr.InvalidArgument("filename is malformed")
	}
	if owner != caller.UID {
		return v, apperr.PermissionDenied("video belongs to another user")
	}

	return validated{videoID: id, liftType: lt, sex: sex, weightClass: in.WeightClass, weightKg: *in.WeightKg}, nil
}

// Save validates the submission, stores the video and records the lift.
// Validation happens before any store access. The video and the personal
// best are separate writes: if the second fails the video stays saved and
// the caller gets an error.
func (s *Service) Save(ctx context.Context, caller Caller, in SaveInput) (SaveResult, error) {
	v, err := validate(caller, in)
	if err != nil {
		observability.SubmissionsTotal.WithLabelValues(strings.ToUpper(in.LiftType), "rejected").Inc()
		return SaveResult{}, err
	}
	lift := string(v.liftType)

	video := &models.Video{
		ID:          v.videoID,
		UID:         caller.UID,
		Filename:    in.Filename,
		Title:       in.Title,
		Description: in.Description,
		LiftType:    v.liftType,
		Sex:         v.sex,
		WeightKg:    v.weightKg,
		Status:      models.VideoStatusProcessing,
	}
	if v.weightClass != nil {
		video.WeightClass = *v.weightClass
	}

	if err := s.videos.CreateVideo(ctx, video); err != nil {
		observability.SubmissionsTotal.WithLabelValues(lift, "error").Inc()
		if errors.Is(err, storage.ErrAlreadyExists) {
			return SaveResult{}, apperr.InvalidArgument("video was already submitted")
		}
		slog.Error("save video", "video_id", video.ID, "uid", caller.UID, "error", err)
		return SaveResult{}, apperr.Internal("failed to save video", err)
	}

	input := ranking.LiftInput{
		UID:         caller.UID,
		LiftType:    v.liftType,
		WeightKg:    v.weightKg,
		VideoRef:    in.Filename,
		WeightClass: v.weightClass,
	}
	if v.sex != models.SexUnknown {
		sex := v.sex
		input.Sex = &sex
	}

	res, err := s.recorder.RecordLift(ctx, input)
	if err != nil {
		observability.SubmissionsTotal.WithLabelValues(lift, "error").Inc()
		slog.Error("record lift after video save", "video_id", video.ID, "uid", caller.UID, "lift", lift, "error", err)
		return SaveResult{}, liftError(err)
	}

	if res.IsPB {
		s.afterPersonalBest(ctx, caller, video, res)
	}

	if err := s.publisher.PublishVideoUploaded(ctx, queue.VideoUploaded{
		VideoID:  video.ID,
		UID:      caller.UID,
		Filename: video.Filename,
		LiftType: lift,
		WeightKg: video.WeightKg,
		IsPB:     res.IsPB,
		At:       s.now().UTC(),
	}); err != nil {
		slog.Warn("publish video uploaded", "video_id", video.ID, "error", err)
	}

	outcome := "saved"
	message := "Video data saved successfully"
	if res.IsPB {
		outcome = "personal_best"
		message = fmt.Sprintf("New personal best! Total is now %g kg", res.TotalKg)
	}
	observability.SubmissionsTotal.WithLabelValues(lift, outcome).Inc()
	slog.Info("lift submitted", "video_id", video.ID, "uid", caller.UID, "lift", lift, "weight_kg", v.weightKg, "is_pb", res.IsPB)

	return SaveResult{Message: message, VideoID: video.ID, IsPB: res.IsPB, TotalKg: res.TotalKg}, nil
}

func (s *Service) afterPersonalBest(ctx context.Context, caller Caller, video *models.Video, res ranking.LiftResult) {
	if err := s.videos.MarkVideoPB(ctx, video.ID); err != nil {
		slog.Warn("mark video as personal best", "video_id", video.ID, "error", err)
	} else {
		video.IsPB = true
	}

	name := caller.Name
	if name == "" {
		name = models.AnonymousName
	}
	evt := queue.PersonalBest{
		UID:         caller.UID,
		Name:        name,
		Sex:         string(video.Sex),
		WeightClass: video.WeightClass,
		LiftType:    string(video.LiftType),
		WeightKg:    video.WeightKg,
		PreviousKg:  res.PreviousKg,
		TotalKg:     res.TotalKg,
		VideoRef:    video.Filename,
		At:          s.now().UTC(),
	}
	if err := s.publisher.PublishPersonalBest(ctx, evt); err != nil {
		slog.Warn("publish personal best", "uid", caller.UID, "error", err)
	}
}

func liftError(err error) error {
	switch {
	case errors.Is(err, ranking.ErrInvalidLift), errors.Is(err, ranking.ErrInvalidWeight), errors.Is(err, ranking.ErrMissingUser):
		return apperr.Wrap(apperr.CodeInvalidArgument, "invalid lift", err)
	case errors.Is(err, ranking.ErrConflict):
		return apperr.Wrap(apperr.CodeAborted, "personal best update conflicted, please resubmit", err)
	default:
		return apperr.Internal("failed to update personal bests", err)
	}
}

// SaveThumbnail attaches a thumbnail to one of the caller's videos.
func (s *Service) SaveThumbnail(ctx context.Context, caller Caller, videoID, thumbnail string) error {
	if caller.UID == "" {
		return apperr.FailedPrecondition("sign in required")
	}
	if strings.TrimSpace(videoID) == "" || strings.TrimSpace(thumbnail) == "" {
		return apperr.InvalidArgument("video id and thumbnail are required")
	}

	video, err := s.videos.GetVideo(ctx, videoID)
	if err != nil {
		return apperr.Internal("failed to load video", err)
	}
	if video == nil {
		return apperr.NotFound("video not found")
	}
	if video.UID != caller.UID {
		return apperr.PermissionDenied("video belongs to another user")
	}

	if err := s.videos.SetVideoThumbnail(ctx, videoID, thumbnail); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("video not found")
		}
		return apperr.Internal("failed to save thumbnail", err)
	}
	return nil
}

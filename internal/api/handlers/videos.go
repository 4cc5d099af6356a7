package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/liftlog/internal/apperr"
	"github.com/your-org/liftlog/internal/models"
	"github.com/your-org/liftlog/pkg/dto"
)

const (
	defaultVideoLimit = 20
	maxVideoLimit     = 100
)

type VideoReader interface {
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	ListVideos(ctx context.Context, limit int) ([]models.Video, error)
}

type VideoHandler struct {
	store VideoReader
}

func NewVideoHandler(store VideoReader) *VideoHandler {
	return &VideoHandler{store: store}
}

func (h *VideoHandler) List(c *gin.Context) {
	limit := defaultVideoLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			_ = c.Error(apperr.InvalidArgument("limit must be a positive integer"))
			return
		}
		limit = min(n, maxVideoLimit)
	}

	videos, err := h.store.ListVideos(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(apperr.Internal("failed to list videos", err))
		return
	}

	resp := make([]dto.VideoResponse, 0, len(videos))
	for i := range videos {
		resp = append(resp, videoToResponse(&videos[i]))
	}

	c.JSON(http.StatusOK, dto.VideoListResponse{Videos: resp, Total: len(resp)})
}

func (h *VideoHandler) Get(c *gin.Context) {
	v, err := h.store.GetVideo(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(apperr.Internal("failed to load video", err))
		return
	}
	if v == nil {
		_ = c.Error(apperr.NotFound("video not found"))
		return
	}

	c.JSON(http.StatusOK, videoToResponse(v))
}

func videoToResponse(v *models.Video) dto.VideoResponse {
	name := v.DisplayName
	if name == "" {
		name = models.AnonymousName
	}
	return dto.VideoResponse{
		ID:              v.ID,
		UID:             v.UID,
		Filename:        v.Filename,
		Thumbnail:       v.Thumbnail,
		Title:           v.Title,
		Description:     v.Description,
		LiftType:        string(v.LiftType),
		Sex:             string(v.Sex),
		WeightClass:     v.WeightClass,
		WeightKg:        v.WeightKg,
		IsPB:            v.IsPB,
		Status:          string(v.Status),
		UserDisplayName: name,
		UserPhotoURL:    v.PhotoURL,
		Date:            v.CreatedAt.UTC(),
	}
}

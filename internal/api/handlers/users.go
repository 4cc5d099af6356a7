package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/liftlog/internal/apperr"
	"github.com/your-org/liftlog/internal/auth"
	"github.com/your-org/liftlog/internal/models"
	"github.com/your-org/liftlog/internal/ranking"
	"github.com/your-org/liftlog/pkg/dto"
)

type UserStore interface {
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	UpsertIdentity(ctx context.Context, id models.Identity) error
}

type UserHandler struct {
	store UserStore
}

func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// Me returns the caller's profile and personal bests.
func (h *UserHandler) Me(c *gin.Context) {
	uid, ok := auth.UserID(c)
	if !ok {
		_ = c.Error(apperr.FailedPrecondition("sign in required"))
		return
	}

	p, err := h.store.GetProfile(c.Request.Context(), uid)
	if err != nil {
		_ = c.Error(apperr.Internal("failed to load profile", err))
		return
	}
	if p == nil {
		_ = c.Error(apperr.NotFound("profile not found"))
		return
	}

	total, _ := ranking.TotalOf(p.PersonalBests)
	c.JSON(http.StatusOK, dto.ProfileResponse{
		UID:           p.UID,
		Email:         p.Email,
		DisplayName:   p.Name(),
		PhotoURL:      p.PhotoURL,
		Sex:           string(p.Sex),
		WeightClass:   p.WeightClass,
		PersonalBests: p.PersonalBests,
		TotalKg:       total,
		UpdatedAt:     p.UpdatedAt.UTC(),
	})
}

// CreateFromHook is called by the identity provider when an account is created.
func (h *UserHandler) CreateFromHook(c *gin.Context) {
	var req dto.UserHookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.InvalidArgument("uid is required"))
		return
	}

	id := models.Identity{UID: req.UID, Email: req.Email, DisplayName: req.DisplayName, PhotoURL: req.PhotoURL}
	if err := h.store.UpsertIdentity(c.Request.Context(), id); err != nil {
		_ = c.Error(apperr.Internal("failed to create profile", err))
		return
	}
	slog.Info("user profile initialized", "uid", req.UID)

	c.JSON(http.StatusCreated, gin.H{"uid": req.UID})
}

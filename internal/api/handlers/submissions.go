package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/liftlog/internal/apperr"
	"github.com/your-org/liftlog/internal/auth"
	"github.com/your-org/liftlog/internal/submission"
	"github.com/your-org/liftlog/pkg/dto"
)

type SubmissionHandler struct {
	svc *submission.Service
}

func NewSubmissionHandler(svc *submission.Service) *SubmissionHandler {
	return &SubmissionHandler{svc: svc}
}

func caller(c *gin.Context) submission.Caller {
	uid, _ := auth.UserID(c)
	return submission.Caller{UID: uid, Name: auth.UserName(c)}
}

func (h *SubmissionHandler) Create(c *gin.Context) {
	var req dto.SaveSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.InvalidArgument("invalid request body"))
		return
	}

	res, err := h.svc.Save(c.Request.Context(), caller(c), submission.SaveInput{
		Filename:    req.Filename,
		Title:       req.Title,
		Description: req.Description,
		LiftType:    req.LiftType,
		Sex:         req.Sex,
		WeightClass: req.WeightClass,
		WeightKg:    req.WeightKg,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.SaveSubmissionResponse{
		Message: res.Message,
		VideoID: res.VideoID,
		IsPB:    res.IsPB,
		TotalKg: res.TotalKg,
	})
}

func (h *SubmissionHandler) SaveThumbnail(c *gin.Context) {
	var req dto.SaveThumbnailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.InvalidArgument("thumbnail is required"))
		return
	}

	if err := h.svc.SaveThumbnail(c.Request.Context(), caller(c), c.Param("id"), req.Thumbnail); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Thumbnail saved"})
}

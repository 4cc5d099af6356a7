package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/liftlog/internal/apperr"
	"github.com/your-org/liftlog/internal/auth"
	"github.com/your-org/liftlog/internal/models"
	"github.com/your-org/liftlog/pkg/dto"
)

var extensionPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,8}$`)

type Presigner interface {
	PresignVideoUpload(ctx context.Context, objectName string) (string, error)
	PresignThumbnailUpload(ctx context.Context, objectName string) (string, error)
}

// UploadHandler hands out presigned URLs so clients upload bytes straight
// to object storage.
type UploadHandler struct {
	presigner Presigner
	password  string
	now       func() time.Time
}

func NewUploadHandler(presigner Presigner, password string) *UploadHandler {
	return &UploadHandler{presigner: presigner, password: password, now: time.Now}
}

func (h *UploadHandler) Video(c *gin.Context) {
	h.issue(c, h.presigner.PresignVideoUpload)
}

func (h *UploadHandler) Thumbnail(c *gin.Context) {
	h.issue(c, h.presigner.PresignThumbnailUpload)
}

func (h *UploadHandler) issue(c *gin.Context, presign func(context.Context, string) (string, error)) {
	uid, ok := auth.UserID(c)
	if !ok {
		_ = c.Error(apperr.FailedPrecondition("sign in required"))
		return
	}

	var req dto.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.InvalidArgument("fileExtension is required"))
		return
	}
	if !extensionPattern.MatchString(req.FileExtension) {
		_ = c.Error(apperr.InvalidArgument("fileExtension is invalid"))
		return
	}
	if h.password != "" && subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.password)) != 1 {
		_ = c.Error(apperr.PermissionDenied("incorrect upload password"))
		return
	}

	name := models.NewVideoFilename(uid, h.now(), req.FileExtension)
	url, err := presign(c.Request.Context(), name)
	if err != nil {
		_ = c.Error(apperr.Internal("failed to create upload url", err))
		return
	}

	c.JSON(http.StatusOK, dto.UploadURLResponse{URL: url, FileName: name})
}

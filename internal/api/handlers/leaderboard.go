package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/liftlog/internal/apperr"
	"github.com/your-org/liftlog/internal/models"
	"github.com/your-org/liftlog/internal/ranking"
	"github.com/your-org/liftlog/pkg/dto"
)

type LeaderboardProjector interface {
	Project(ctx context.Context, f models.LeaderboardFilter) ([]models.LeaderboardRow, error)
}

type LeaderboardHandler struct {
	projector LeaderboardProjector
}

func NewLeaderboardHandler(projector LeaderboardProjector) *LeaderboardHandler {
	return &LeaderboardHandler{projector: projector}
}

// Get serves ?sex=M|F|ALL&weight_class=&top_n=&include_zeros=. Rows come
// back unordered; sorting is up to the client.
func (h *LeaderboardHandler) Get(c *gin.Context) {
	f := models.LeaderboardFilter{Sex: c.Query("sex")}

	if v := c.Query("weight_class"); v != "" {
		wc, err := strconv.ParseFloat(v, 64)
		if err != nil {
			_ = c.Error(apperr.InvalidArgument("weight_class must be a number"))
			return
		}
		f.WeightClass = &wc
	}
	if v := c.Query("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			_ = c.Error(apperr.InvalidArgument("top_n must be an integer"))
			return
		}
		f.TopN = n
	}
	if v := c.Query("include_zeros"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			_ = c.Error(apperr.InvalidArgument("include_zeros must be a boolean"))
			return
		}
		f.IncludeZeros = b
	}

	rows, err := h.projector.Project(c.Request.Context(), f)
	if err != nil {
		if errors.Is(err, ranking.ErrInvalidFilter) {
			_ = c.Error(apperr.Wrap(apperr.CodeInvalidArgument, "invalid leaderboard filter", err))
			return
		}
		_ = c.Error(apperr.Internal("failed to load leaderboard", err))
		return
	}

	c.JSON(http.StatusOK, dto.LeaderboardResponse{Rows: rows, Total: len(rows)})
}

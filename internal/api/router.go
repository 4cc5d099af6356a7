package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/liftlog/internal/api/handlers"
	"github.com/your-org/liftlog/internal/api/ws"
	"github.com/your-org/liftlog/internal/auth"
	"github.com/your-org/liftlog/internal/submission"
)

// Store is the read side the HTTP layer needs from storage.
type Store interface {
	handlers.VideoReader
	handlers.UserStore
}

type RouterConfig struct {
	APIKey         string
	JWTSecret      string
	JWTIssuer      string
	UploadPassword string

	Store       Store
	Presigner   handlers.Presigner // nil disables upload URLs
	Submissions *submission.Service
	Projector   handlers.LeaderboardProjector
	Hub         *ws.Hub
	Checks      map[string]handlers.Check
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())
	r.Use(ErrorHandler())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Checks)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.Use(auth.BearerMiddleware(cfg.JWTSecret, cfg.JWTIssuer))

	// Identity provider hook
	userH := handlers.NewUserHandler(cfg.Store)
	v1.POST("/hooks/users", auth.APIKeyMiddleware(cfg.APIKey), userH.CreateFromHook)

	// Public reads
	videoH := handlers.NewVideoHandler(cfg.Store)
	v1.GET("/videos", videoH.List)
	v1.GET("/videos/:id", videoH.Get)

	boardH := handlers.NewLeaderboardHandler(cfg.Projector)
	v1.GET("/leaderboard", boardH.Get)

	if cfg.Hub != nil {
		v1.GET("/ws/leaderboard", cfg.Hub.HandleWS)
	}

	// Signed-in callers
	user := v1.Group("")
	user.Use(auth.RequireUser())
	user.GET("/users/me", userH.Me)

	if cfg.Presigner != nil {
		uploadH := handlers.NewUploadHandler(cfg.Presigner, cfg.UploadPassword)
		user.POST("/uploads/video", uploadH.Video)
		user.POST("/uploads/thumbnail", uploadH.Thumbnail)
	}

	if cfg.Submissions != nil {
		subH := handlers.NewSubmissionHandler(cfg.Submissions)
		user.POST("/submissions", subH.Create)
		user.PUT("/videos/:id/thumbnail", subH.SaveThumbnail)
	}

	return r
}

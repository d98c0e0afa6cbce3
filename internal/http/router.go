package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/GeonSoon1/moonshot-myself/internal/config"
	"github.com/GeonSoon1/moonshot-myself/internal/http/handler"
	"github.com/GeonSoon1/moonshot-myself/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, projectHandler *handler.ProjectHandler, memberHandler *handler.MemberHandler, authMiddleware *middleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/google/url", authHandler.GoogleAuthURL)
		auth.POST("/google", authHandler.GoogleLogin)
	}

	projects := r.Group("/projects", authMiddleware.ValidateJWT)
	{
		projects.POST("", projectHandler.Create)
		projects.GET("/:projectId", projectHandler.Get)
		projects.GET("/:projectId/members", memberHandler.List)
		projects.POST("/:projectId/invitations", memberHandler.Invite)
		projects.DELETE("/:projectId/members/:memberId", memberHandler.Remove)
	}

	invitations := r.Group("/invitations", authMiddleware.ValidateJWT)
	{
		invitations.POST("/:invitationId/accept", memberHandler.Accept)
		invitations.DELETE("/:invitationId", memberHandler.Cancel)
	}

	return r
}

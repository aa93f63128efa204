package api

import (
	a "chatwire/internal/auth"
	md "chatwire/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Router struct {
	ah *AuthHandlers
	uh *UserHandlers
	ch *ChatHandlers
	mh *MessageHandlers
	wh *WebSocketHandler
	rh *AuditHandlers
	am *a.AuthMiddleware
}

func NewRouter(db *gorm.DB, wh *WebSocketHandler) *Router {
	return &Router{
		ah: NewAuthHandlers(db),
		uh: NewUserHandlers(db),
		ch: NewChatHandlers(db),
		mh: NewMessageHandlers(db),
		wh: wh,
		rh: NewAuditHandlers(db),
		am: a.NewAuthMiddleware(),
	}
}

func (r *Router) RegisterRoutes(router *gin.Engine) {
	authLimiter := md.NewIPRateLimiter(md.StrictRateLimit)
	apiLimiter := md.NewIPRateLimiter(md.StandardRateLimit)

	{
		unprotected := router.Group("/")
		unprotected.Use(md.RateLimitMiddleware(authLimiter))
		unprotected.GET("/hc", HealthCheckHandler)
		unprotected.POST("/register", r.ah.RegisterHandler)
		unprotected.POST("/login", r.ah.LoginHandler)
	}

	{
		protected := router.Group("/api")
		protected.Use(md.RateLimitMiddleware(apiLimiter))
		protected.Use(r.am.RequireAuth())

		protected.GET("/user", r.uh.SearchUsersHandler)

		protected.GET("/chat", r.ch.GetChatsHandler)
		protected.POST("/chat", r.ch.AccessChatHandler)
		protected.POST("/chat/group", r.ch.CreateGroupHandler)
		protected.PUT("/chat/rename", r.ch.RenameGroupHandler)
		protected.PUT("/chat/groupadd", r.ch.AddToGroupHandler)
		protected.PUT("/chat/groupremove", r.ch.RemoveFromGroupHandler)

		protected.GET("/message/:chatId", r.mh.GetChatMessagesHandler)
		protected.POST("/message", r.mh.SendMessageHandler)

		protected.GET("/relay/info", r.wh.GetRelayInfo)
		protected.GET("/relay/rooms/:chatId", r.wh.GetRoomStats)
		protected.GET("/relay/presence/:userId", r.wh.GetUserPresence)
		protected.GET("/relay/events", r.rh.GetRelayEventsHandler)
	}

	// Token arrives as a query parameter here; the upgrade handler validates it.
	router.GET("/ws", r.wh.HandleWebSocket)
}

func HealthCheckHandler(c *gin.Context) {
	c.String(200, "Running")
}

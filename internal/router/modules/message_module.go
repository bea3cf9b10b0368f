package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/mother-community/internal/container"
	handlers "github.com/oksasatya/mother-community/internal/interface/http"
	"github.com/oksasatya/mother-community/internal/interface/middleware"
	"github.com/oksasatya/mother-community/pkg/helpers"
)

type MessageModule struct {
	Handler *handlers.MessageHandler
	JWT     *helpers.JWTManager
}

func NewMessageModule(h *handlers.MessageHandler, jwt *helpers.JWTManager) *MessageModule {
	return &MessageModule{Handler: h, JWT: jwt}
}

func (m *MessageModule) Register(rg *gin.RouterGroup) {
	sendLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserID(), nil)

	auth := protected(rg, m.JWT)
	{
		auth.GET("/messages", m.Handler.Inbox)
		auth.POST("/messages", sendLimiter, m.Handler.Send)
		auth.GET("/messages/unread-count", m.Handler.UnreadCount)
		auth.GET("/messages/unread/ws", m.Handler.UnreadWS)
		auth.GET("/messages/with/:peerID", m.Handler.Conversation)
		auth.POST("/messages/with/:peerID/read", m.Handler.MarkRead)
		auth.GET("/messages/with/:peerID/ws", m.Handler.ConversationWS)
	}
}

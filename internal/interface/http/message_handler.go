package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/mother-community/internal/application"
	"github.com/oksasatya/mother-community/internal/domain/entity"
	repo "github.com/oksasatya/mother-community/internal/domain/repository"
	"github.com/oksasatya/mother-community/pkg/response"
	"github.com/oksasatya/mother-community/pkg/validation"
)

// MessageService is implemented by *application.MessageService.
type MessageService interface {
	app.ConversationStore
	app.UnreadCounter
	Inbox(ctx context.Context, viewerID string) ([]entity.Message, error)
	MarkConversationRead(ctx context.Context, viewerID, peerID string) ([]entity.Message, error)
}

type MessageHandler struct {
	Svc    MessageService
	Feed   repo.Feed
	Logger *logrus.Logger

	// ReadTimeout bounds the background read marking after a conversation
	// has been served.
	ReadTimeout time.Duration
}

func NewMessageHandler(svc MessageService, feed repo.Feed, logger *logrus.Logger) *MessageHandler {
	return &MessageHandler{Svc: svc, Feed: feed, Logger: logger, ReadTimeout: 10 * time.Second}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required,uuid"`
	Content    string `json:"content" binding:"required,notblank,max=4000"`
}

func (h *MessageHandler) Inbox(c *gin.Context) {
	msgs, err := h.Svc.Inbox(c.Request.Context(), viewerID(c))
	if err != nil {
		writeError(c, h.Logger, "load inbox failed", err)
		return
	}
	response.Success(c, http.StatusOK, nonNil(msgs), "inbox", gin.H{"count": len(msgs), "unread": app.CountUnread(msgs, viewerID(c))})
}

func (h *MessageHandler) UnreadCount(c *gin.Context) {
	n, err := h.Svc.UnreadCount(c.Request.Context(), viewerID(c))
	if err != nil {
		writeError(c, h.Logger, "count unread failed", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unread": n}, "unread count", nil)
}

// Conversation returns both directions of the exchange with peerID. Messages
// addressed to the viewer are marked read in the background after the
// response has been built.
func (h *MessageHandler) Conversation(c *gin.Context) {
	viewer, peer := viewerID(c), c.Param("peerID")
	msgs, err := h.Svc.Conversation(c.Request.Context(), viewer, peer)
	if err != nil {
		writeError(c, h.Logger, "load conversation failed", err)
		return
	}

	if ids := app.UnreadIDs(msgs, viewer); len(ids) > 0 {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), h.ReadTimeout)
			defer cancel()
			if _, err := h.Svc.MarkRead(ctx, viewer, ids); err != nil && h.Logger != nil {
				h.Logger.WithError(err).WithField("peer_id", peer).Warn("mark read failed")
			}
		}()
	}
	response.Success(c, http.StatusOK, nonNil(msgs), "conversation", gin.H{"count": len(msgs)})
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	m, err := h.Svc.Send(c.Request.Context(), viewerID(c), req.ReceiverID, req.Content)
	if err != nil {
		writeError(c, h.Logger, "send message failed", err)
		return
	}
	response.Success(c, http.StatusCreated, m, "message sent", nil)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	changed, err := h.Svc.MarkConversationRead(c.Request.Context(), viewerID(c), c.Param("peerID"))
	if err != nil {
		writeError(c, h.Logger, "mark read failed", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"marked": len(changed)}, "messages read", nil)
}

func nonNil(msgs []entity.Message) []entity.Message {
	if msgs == nil {
		return []entity.Message{}
	}
	return msgs
}

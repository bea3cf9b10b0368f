package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/pkg/helpers"
	"github.com/oksasatya/mother-community/pkg/response"
)

// AccountDeleter is implemented by *application.AccountDeleter.
type AccountDeleter interface {
	DeleteAs(ctx context.Context, requesterID, memberID string) error
}

type AccountHandler struct {
	Deleter AccountDeleter
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAccountHandler(deleter AccountDeleter, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AccountHandler {
	return &AccountHandler{Deleter: deleter, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

// DeleteOwn removes the signed-in member. The session is revoked as part of
// removing the auth account; the cookies are cleared here.
func (h *AccountHandler) DeleteOwn(c *gin.Context) {
	uid := viewerID(c)
	if err := h.Deleter.DeleteAs(c.Request.Context(), uid, uid); err != nil {
		writeError(c, h.Logger, "account deletion failed", err)
		return
	}
	h.Cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"deleted": uid}, "account deleted", nil)
}

// DeleteMember removes another member's account. Only admins get here.
func (h *AccountHandler) DeleteMember(c *gin.Context) {
	id := c.Param("id")
	if err := h.Deleter.DeleteAs(c.Request.Context(), viewerID(c), id); err != nil {
		writeError(c, h.Logger, "account deletion failed", err)
		return
	}
	if h.Logger != nil {
		h.Logger.WithFields(logrus.Fields{"admin_id": viewerID(c), "member_id": id}).Info("member deleted by admin")
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id}, "account deleted", nil)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/mother-community/internal/application"
	"github.com/oksasatya/mother-community/pkg/helpers"
	"github.com/oksasatya/mother-community/pkg/response"
)

// writeError maps application errors to an HTTP status. Unknown errors are
// logged and reported as 500 without details.
func writeError(c *gin.Context, logger *logrus.Logger, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, app.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, app.ErrUserNotFound), errors.Is(err, app.ErrProfileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, app.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, app.ErrPasswordMismatch), errors.Is(err, app.ErrWeakPassword),
		errors.Is(err, app.ErrEmptyMessage), errors.Is(err, app.ErrSelfMessage),
		errors.Is(err, app.ErrInvalidEvent):
		status = http.StatusBadRequest
	}

	var de *app.DeletionError
	if errors.As(err, &de) {
		helpers.LogError(logger, msg, de.Err, logrus.Fields{"step": int(de.Step)})
		response.Error[any](c, http.StatusInternalServerError, msg, gin.H{
			"step":      int(de.Step),
			"step_name": de.Step.String(),
			"detail":    de.Err.Error(),
		})
		return
	}

	if status == http.StatusInternalServerError {
		helpers.LogError(logger, msg, err, logrus.Fields{"path": c.FullPath()})
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Error[any](c, status, err.Error(), nil)
}

func viewerID(c *gin.Context) string {
	return c.GetString("userID")
}

package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"vision-board-backend/internal/apperror"
	"vision-board-backend/internal/models"
)

func envelope(success bool, message string, data interface{}, errs map[string]string) models.Envelope {
	return models.Envelope{
		Success:   success,
		Message:   message,
		Data:      data,
		Errors:    errs,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, envelope(true, message, data, nil))
}

func Accepted(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusAccepted, envelope(true, message, data, nil))
}

// Error renders err as a failure envelope and aborts the chain. The wrapped
// cause of upstream and internal errors is only shown when showDetail is set.
func Error(c *gin.Context, err error, showDetail bool) {
	appErr := apperror.As(err)

	var errs map[string]string
	if len(appErr.Fields) > 0 {
		errs = make(map[string]string, len(appErr.Fields))
		for k, v := range appErr.Fields {
			errs[k] = v
		}
	}
	if showDetail && appErr.Err != nil && (appErr.Kind == apperror.KindUpstream || appErr.Kind == apperror.KindInternal) {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["detail"] = appErr.Err.Error()
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus(), envelope(false, appErr.Message, nil, errs))
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"andon/internal/models"
	"andon/internal/repository"
	"andon/internal/utils"
)

// writeError отображает ошибку сервисного слоя в HTTP-ответ. Сообщения
// валидации и разбора файла уходят клиенту как есть, все остальное - 500
// с общим текстом и логом на сервере.
func writeError(c *gin.Context, log *zap.SugaredLogger, err error) {
	var verr *models.ValidationError
	var ferr *utils.MalformedFileError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  verr.Message,
			"fields": verr.Fields,
		})
	case errors.As(err, &ferr):
		c.JSON(http.StatusBadRequest, gin.H{"error": ferr.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Anomaly not found"})
	default:
		log.Errorw("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"andon/internal/service"
)

type UploadHandler struct {
	service service.ImportService
	maxSize int64
	log     *zap.SugaredLogger
}

func NewUploadHandler(service service.ImportService, maxSize int64, log *zap.SugaredLogger) *UploadHandler {
	return &UploadHandler{service: service, maxSize: maxSize, log: log}
}

// Upload принимает multipart-файл с таблицей аномалий и запускает импорт
func (h *UploadHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	if h.maxSize > 0 && fileHeader.Size > h.maxSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file too large, limit is %d bytes", h.maxSize),
		})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	defer src.Close()

	summary, err := h.service.ImportExcel(c.Request.Context(), src)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if summary.ParsedCount == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message":       "No anomalies found in the file or file was empty.",
			"insertedCount": 0,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Excel data processed successfully.",
		"parsedCount":   summary.ParsedCount,
		"insertedCount": summary.InsertedCount,
		"failedRows":    summary.FailedRows,
	})
}

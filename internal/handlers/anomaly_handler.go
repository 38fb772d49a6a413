package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"andon/internal/models"
	"andon/internal/repository"
	"andon/internal/service"
)

type AnomalyHandler struct {
	service service.AnomalyService
	log     *zap.SugaredLogger
}

func NewAnomalyHandler(service service.AnomalyService, log *zap.SugaredLogger) *AnomalyHandler {
	return &AnomalyHandler{service: service, log: log}
}

func listFilterFromQuery(c *gin.Context) repository.ListFilter {
	return repository.ListFilter{
		Status:      c.Query("status"),
		Criticality: c.Query("criticality"),
		Equipment:   c.Query("equipment"),
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.DefaultQuery("sortOrder", "asc"),
	}
}

func (h *AnomalyHandler) List(c *gin.Context) {
	anomalies, err := h.service.List(c.Request.Context(), listFilterFromQuery(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, anomalies)
}

func (h *AnomalyHandler) Create(c *gin.Context) {
	var input models.AnomalyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"message": err.Error(),
		})
		return
	}

	anomaly, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, anomaly)
}

func (h *AnomalyHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// Некорректный идентификатор не может адресовать запись
		c.JSON(http.StatusNotFound, gin.H{"error": "Anomaly not found"})
		return
	}

	anomaly, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, anomaly)
}

func (h *AnomalyHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Anomaly not found"})
		return
	}

	var update models.AnomalyUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"message": err.Error(),
		})
		return
	}

	anomaly, err := h.service.Update(c.Request.Context(), id, update)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, anomaly)
}

func (h *AnomalyHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Anomaly not found"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Anomaly deleted successfully"})
}

func (h *AnomalyHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "xlsx")

	var contentType string
	switch format {
	case "csv":
		contentType = "text/csv"
	case "excel", "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format, use 'csv' or 'xlsx'"})
		return
	}

	path, err := h.service.Export(c.Request.Context(), format, listFilterFromQuery(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename="+filepath.Base(path))
	c.File(path)
}

func (h *AnomalyHandler) ListScheduled(c *gin.Context) {
	anomalies, err := h.service.ListScheduled(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items": anomalies,
		"count": len(anomalies),
	})
}

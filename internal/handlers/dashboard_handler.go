package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"andon/internal/service"
)

type DashboardHandler struct {
	service service.AnomalyService
	log     *zap.SugaredLogger
}

func NewDashboardHandler(service service.AnomalyService, log *zap.SugaredLogger) *DashboardHandler {
	return &DashboardHandler{service: service, log: log}
}

// GetStats отдает KPI-счетчики для дашборда: всего записей, открытые,
// открытые с высокой критичностью и разбивки по статусу и критичности
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

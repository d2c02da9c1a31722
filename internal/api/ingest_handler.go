package api

import (
	"errors"
	"net/http"

	"BoxOfficeSync/internal/model"
	"BoxOfficeSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// IngestHandler 摄取触发入口（外部调度器/抓取器调用）
type IngestHandler struct {
	ingestService *service.IngestService
	logger        *logrus.Logger
}

func NewIngestHandler(ingestService *service.IngestService, logger *logrus.Logger) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
		logger:        logger,
	}
}

// RunIngestionHandler 摄取一批源数据行。
// 请求体为源数据行JSON数组；已有摄取在执行时返回409（重叠触发被拒绝，不排队）。
func (h *IngestHandler) RunIngestionHandler(c *gin.Context) {
	var rows []model.SourceRow
	if err := c.ShouldBindJSON(&rows); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体解析失败: " + err.Error()})
		return
	}

	report, err := h.ingestService.RunIngestion(c.Request.Context(), rows)
	if err != nil {
		if errors.Is(err, service.ErrIngestionRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Errorf("摄取失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"report": report, // 部分状态，供决定是否回滚重跑
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

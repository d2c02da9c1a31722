package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"BoxOfficeSync/internal/model"
	"BoxOfficeSync/internal/repository"
	"BoxOfficeSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WeekHandler 周汇总/事件日志查询与归档导出（给运维工具与前端的薄查询面）
type WeekHandler struct {
	weekRepo       repository.WeekRepository
	eventRepo      repository.IngestEventRepository
	archiveService *service.ArchiveService
	logger         *logrus.Logger
}

func NewWeekHandler(
	weekRepo repository.WeekRepository,
	eventRepo repository.IngestEventRepository,
	archiveService *service.ArchiveService,
	logger *logrus.Logger,
) *WeekHandler {
	return &WeekHandler{
		weekRepo:       weekRepo,
		eventRepo:      eventRepo,
		archiveService: archiveService,
		logger:         logger,
	}
}

// ListWeeksHandler 周汇总列表，可选 year 过滤
func (h *WeekHandler) ListWeeksHandler(c *gin.Context) {
	var year *int
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "年度参数无效"})
			return
		}
		year = &y
	}

	weeks, err := h.weekRepo.List(c.Request.Context(), year)
	if err != nil {
		h.logger.Errorf("查询周汇总失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(weeks), "items": weeks})
}

// GetWeekHandler 按日期取单条周汇总
func (h *WeekHandler) GetWeekHandler(c *gin.Context) {
	date, err := time.Parse(model.SourceDateLayout, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "日期参数无效，应为 2006-01-02"})
		return
	}

	week, err := h.weekRepo.GetByDate(c.Request.Context(), date)
	if err != nil {
		if repository.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "该日期无周汇总"})
			return
		}
		h.logger.Errorf("查询周汇总失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, week)
}

// forecastRequest 外部预测协作方回写的三档预测值
type forecastRequest struct {
	High   int64 `json:"high"`
	Medium int64 `json:"medium"`
	Low    int64 `json:"low"`
}

// UpdateForecastHandler 外部预测服务回写某周的预测区间
func (h *WeekHandler) UpdateForecastHandler(c *gin.Context) {
	date, err := time.Parse(model.SourceDateLayout, c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "日期参数无效，应为 2006-01-02"})
		return
	}
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体解析失败: " + err.Error()})
		return
	}

	if err := h.weekRepo.UpdateForecast(c.Request.Context(), date, req.High, req.Medium, req.Low); err != nil {
		h.logger.Errorf("回写预测失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "预测已更新"})
}

// ListEventsHandler 最近的摄取审计事件
func (h *WeekHandler) ListEventsHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	events, err := h.eventRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Errorf("查询摄取事件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(events), "items": events})
}

// ExportArchiveHandler 按年度导出平面归档文件
func (h *WeekHandler) ExportArchiveHandler(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "年度参数无效"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="archive-%d.csv"`, year))
	if err := h.archiveService.ExportYear(c.Request.Context(), year, c.Writer); err != nil {
		h.logger.Errorf("归档导出失败: %v", err)
		// 响应头可能已写出，只能记日志并中断
		c.Abort()
	}
}

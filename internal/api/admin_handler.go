package api

import (
	"net/http"
	"strconv"

	"BoxOfficeSync/internal/model"
	"BoxOfficeSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler 回滚与市场份额重算的触发入口
type AdminHandler struct {
	rollbackService    *service.RollbackService
	marketShareService *service.MarketShareService
	logger             *logrus.Logger
}

func NewAdminHandler(
	rollbackService *service.RollbackService,
	marketShareService *service.MarketShareService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		rollbackService:    rollbackService,
		marketShareService: marketShareService,
		logger:             logger,
	}
}

// RollbackLastHandler 回滚最近摄取的一周，返回受影响行数
func (h *AdminHandler) RollbackLastHandler(c *gin.Context) {
	report, err := h.rollbackService.RollbackLast(c.Request.Context())
	if err != nil {
		h.logger.Errorf("回滚最后一周失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// RollbackYearHandler 回滚指定日历年度
func (h *AdminHandler) RollbackYearHandler(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "年度参数无效"})
		return
	}

	report, err := h.rollbackService.RollbackYear(c.Request.Context(), year)
	if err != nil {
		h.logger.Errorf("回滚 %d 年度失败: %v", year, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// RecomputeMarketShareHandler 重算市场份额。
// type=distributor/country（默认distributor），year 缺省时覆盖全部年度。
func (h *AdminHandler) RecomputeMarketShareHandler(c *gin.Context) {
	entityType := model.EntityType(c.DefaultQuery("type", string(model.EntityDistributor)))

	var year *int
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "年度参数无效"})
			return
		}
		year = &y
	}

	count, err := h.marketShareService.Recompute(c.Request.Context(), year, entityType)
	if err != nil {
		h.logger.Errorf("市场份额重算失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entity_type": entityType, "rows": count})
}

package service

import (
	"context"
	"fmt"

	"BoxOfficeSync/internal/model"
	"BoxOfficeSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// MarketShareService 市场份额反规范化：周期性把各实体的年度票房占比
// 重算进独立的预计算表。先整删目标范围再重建，表本身可安全丢弃。
type MarketShareService struct {
	shareRepo repository.MarketShareRepository
	weekRepo  repository.WeekRepository
	logger    *logrus.Logger
}

func NewMarketShareService(
	shareRepo repository.MarketShareRepository,
	weekRepo repository.WeekRepository,
	logger *logrus.Logger,
) *MarketShareService {
	return &MarketShareService{
		shareRepo: shareRepo,
		weekRepo:  weekRepo,
		logger:    logger,
	}
}

// Recompute 重算市场份额。year 为 nil 时覆盖全部年度。
// 分子：明细账 week_gross 按实体×年度合计；分母：周汇总表同年度 week_gross 合计；
// 分母为零或缺失时占比计 0。无任何明细的实体直接省略，不算错误。
func (s *MarketShareService) Recompute(ctx context.Context, year *int, entityType model.EntityType) (int, error) {
	switch entityType {
	case model.EntityDistributor, model.EntityCountry:
	default:
		return 0, fmt.Errorf("未支持的实体类型: %s", entityType)
	}

	deleted, err := s.shareRepo.DeleteByTarget(ctx, entityType, year)
	if err != nil {
		return 0, fmt.Errorf("删除旧市场份额失败: %w", err)
	}

	sums, err := s.shareRepo.SumGrossByEntityYear(ctx, entityType, year)
	if err != nil {
		return 0, fmt.Errorf("汇总实体年度票房失败: %w", err)
	}
	totals, err := s.weekRepo.SumWeekGrossByYear(ctx, year)
	if err != nil {
		return 0, fmt.Errorf("汇总年度总票房失败: %w", err)
	}

	shares := make([]*model.MarketShare, 0, len(sums))
	for _, sum := range sums {
		var pct float64
		if total := totals[sum.Year]; total > 0 {
			pct = float64(sum.Gross) / float64(total) * 100
		}
		shares = append(shares, &model.MarketShare{
			EntityType:     entityType,
			EntityID:       sum.EntityID,
			Year:           sum.Year,
			Gross:          sum.Gross,
			MarketSharePct: pct,
		})
	}
	if err := s.shareRepo.BulkCreate(ctx, shares); err != nil {
		return 0, fmt.Errorf("写入市场份额失败: %w", err)
	}

	s.logger.Infof("市场份额重算完成（%s）：删除 %d 行，重建 %d 行", entityType, deleted, len(shares))
	return len(shares), nil
}

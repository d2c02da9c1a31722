package service

import (
	"context"
	"fmt"
	"time"

	"BoxOfficeSync/internal/repository"
)

// DefaultLookbackDays 回看窗口默认天数。上游只可靠上报累计总票房与周末票房，
// 单周净值必须重建；窗口上界是在准确性与跨重映误匹配之间权衡出的经验值，可配置。
const DefaultLookbackDays = 90

// GrossCalculator 从噪声累计值推导真实单周票房
type GrossCalculator struct {
	ledgerRepo repository.FilmWeekRepository
	lookback   time.Duration
}

func NewGrossCalculator(ledgerRepo repository.FilmWeekRepository, lookbackDays int) *GrossCalculator {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &GrossCalculator{
		ledgerRepo: ledgerRepo,
		lookback:   time.Duration(lookbackDays) * 24 * time.Hour,
	}
}

// WeekGross 推导单周票房：
//  1. 首周（weeks_on_release==1）：累计即单周，直接取 total_gross；
//  2. 否则在回看窗口内取该影片此前最高累计值，delta = total_gross - prior；
//  3. 窗口内无记录（数据断档/重映/首次灌库）退回 weekend_gross；
//  4. delta < 0（上游累计值被向下修正）同样退回 weekend_gross，不输出负值。
//
// 负 delta 属预期内的数据质量问题，静默回退，不记错误。
func (c *GrossCalculator) WeekGross(ctx context.Context, filmID uint64, date time.Time, weeksOnRelease int, weekendGross, totalGross int64) (int64, error) {
	if weeksOnRelease == 1 {
		return totalGross, nil
	}

	prior, found, err := c.ledgerRepo.PriorTotalGross(ctx, filmID, date, c.lookback)
	if err != nil {
		return 0, fmt.Errorf("回看查询失败: %w", err)
	}
	if !found {
		return weekendGross, nil
	}

	delta := totalGross - prior
	if delta < 0 {
		return weekendGross, nil
	}
	return delta, nil
}

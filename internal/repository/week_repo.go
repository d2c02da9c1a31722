package repository

import (
	"context"
	"time"

	"BoxOfficeSync/internal/model"

	"gorm.io/gorm"
)

// YearGross 某年度全市场单周票房合计
type YearGross struct {
	Year  int
	Gross int64
}

// WeekRepository 周汇总仓储
type WeekRepository interface {
	// Accumulate 把一行明细并入 date 对应的周汇总行，首次见到该日期时建行。
	// 刻意不幂等：重复摄取同一批次会重复累加，幂等性由「先回滚再重跑」保证。
	Accumulate(ctx context.Context, date time.Time, weekGross, weekendGross int64, cinemas, weeksOnRelease int) error
	GetByDate(ctx context.Context, date time.Time) (*model.Week, error)
	List(ctx context.Context, year *int) ([]*model.Week, error)
	// ZeroByDate / ZeroByYear 清零累加字段，行保留
	ZeroByDate(ctx context.Context, date time.Time) (int64, error)
	ZeroByYear(ctx context.Context, year int) (int64, error)
	// SumWeekGrossByYear 市场份额重算的分母：按年度合计 week_gross
	SumWeekGrossByYear(ctx context.Context, year *int) (map[int]int64, error)
	// UpdateForecast 外部预测协作方唯一的写入口
	UpdateForecast(ctx context.Context, date time.Time, high, medium, low int64) error
}

type weekRepository struct {
	db *gorm.DB
}

func NewWeekRepository(db *gorm.DB) WeekRepository {
	return &weekRepository{db: db}
}

// Accumulate 单写者模型下读-改-写即可，无需上锁
func (r *weekRepository) Accumulate(ctx context.Context, date time.Time, weekGross, weekendGross int64, cinemas, weeksOnRelease int) error {
	var week model.Week
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&week).Error
	switch {
	case IsNotFound(err):
		week = model.Week{Date: date}
		week.Accumulate(weekGross, weekendGross, cinemas, weeksOnRelease)
		return r.db.WithContext(ctx).Create(&week).Error
	case err != nil:
		return err
	}
	week.Accumulate(weekGross, weekendGross, cinemas, weeksOnRelease)
	return r.db.WithContext(ctx).Model(&week).Updates(map[string]interface{}{
		"week_gross":         week.WeekGross,
		"weekend_gross":      week.WeekendGross,
		"number_of_cinemas":  week.NumberOfCinemas,
		"number_of_releases": week.NumberOfReleases,
		"updated_at":         time.Now(),
	}).Error
}

func (r *weekRepository) GetByDate(ctx context.Context, date time.Time) (*model.Week, error) {
	var week model.Week
	if err := r.db.WithContext(ctx).Where("date = ?", date).First(&week).Error; err != nil {
		return nil, err
	}
	return &week, nil
}

func (r *weekRepository) List(ctx context.Context, year *int) ([]*model.Week, error) {
	db := r.db.WithContext(ctx).Model(&model.Week{})
	if year != nil {
		from := time.Date(*year, 1, 1, 0, 0, 0, 0, time.UTC)
		db = db.Where("date >= ? AND date < ?", from, from.AddDate(1, 0, 0))
	}
	var weeks []*model.Week
	if err := db.Order("date ASC").Find(&weeks).Error; err != nil {
		return nil, err
	}
	return weeks, nil
}

var zeroFields = map[string]interface{}{
	"weekend_gross":      0,
	"week_gross":         0,
	"number_of_cinemas":  0,
	"number_of_releases": 0,
}

func (r *weekRepository) ZeroByDate(ctx context.Context, date time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Week{}).
		Where("date = ?", date).
		Updates(zeroFields)
	return res.RowsAffected, res.Error
}

func (r *weekRepository) ZeroByYear(ctx context.Context, year int) (int64, error) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	res := r.db.WithContext(ctx).Model(&model.Week{}).
		Where("date >= ? AND date < ?", from, from.AddDate(1, 0, 0)).
		Updates(zeroFields)
	return res.RowsAffected, res.Error
}

func (r *weekRepository) SumWeekGrossByYear(ctx context.Context, year *int) (map[int]int64, error) {
	var rows []YearGross
	db := r.db.WithContext(ctx).Model(&model.Week{}).
		Select("EXTRACT(YEAR FROM date)::int AS year, COALESCE(SUM(week_gross), 0) AS gross").
		Group("EXTRACT(YEAR FROM date)")
	if year != nil {
		from := time.Date(*year, 1, 1, 0, 0, 0, 0, time.UTC)
		db = db.Where("date >= ? AND date < ?", from, from.AddDate(1, 0, 0))
	}
	if err := db.Scan(&rows).Error; err != nil {
		return nil, err
	}
	totals := make(map[int]int64, len(rows))
	for _, row := range rows {
		totals[row.Year] = row.Gross
	}
	return totals, nil
}

func (r *weekRepository) UpdateForecast(ctx context.Context, date time.Time, high, medium, low int64) error {
	return r.db.WithContext(ctx).Model(&model.Week{}).
		Where("date = ?", date).
		Updates(map[string]interface{}{
			"forecast_high":   high,
			"forecast_medium": medium,
			"forecast_low":    low,
			"updated_at":      time.Now(),
		}).Error
}

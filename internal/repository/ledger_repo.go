package repository

import (
	"context"
	"database/sql"
	"time"

	"BoxOfficeSync/internal/model"

	"gorm.io/gorm"
)

// FilmWeekRepository 明细账仓储
type FilmWeekRepository interface {
	Create(ctx context.Context, fw *model.FilmWeek) error
	// PriorTotalGross 回看窗口内同一影片此前最高的累计总票房。
	// 窗口为 [date-lookback, date)，date 当天严格排除。无匹配时 found=false。
	PriorTotalGross(ctx context.Context, filmID uint64, date time.Time, lookback time.Duration) (total int64, found bool, err error)
	// MaxDate 明细账中最大日期；账本为空时 found=false
	MaxDate(ctx context.Context) (date time.Time, found bool, err error)
	DeleteByDate(ctx context.Context, date time.Time) (int64, error)
	DeleteByYear(ctx context.Context, year int) (int64, error)
	// ListByYear 按 (date, rank) 排序并预加载影片关联，供归档导出
	ListByYear(ctx context.Context, year int) ([]*model.FilmWeek, error)
}

type filmWeekRepository struct {
	db *gorm.DB
}

func NewFilmWeekRepository(db *gorm.DB) FilmWeekRepository {
	return &filmWeekRepository{db: db}
}

func (r *filmWeekRepository) Create(ctx context.Context, fw *model.FilmWeek) error {
	return r.db.WithContext(ctx).Create(fw).Error
}

// PriorTotalGross 按 total_gross 降序取第一条：正常单调累计时即最近一次上报；
// 这也是全仓储中唯一随影片历史规模增长的查询，已由窗口上界约束。
func (r *filmWeekRepository) PriorTotalGross(ctx context.Context, filmID uint64, date time.Time, lookback time.Duration) (int64, bool, error) {
	var prior model.FilmWeek
	err := r.db.WithContext(ctx).
		Where("film_id = ? AND date < ? AND date >= ?", filmID, date, date.Add(-lookback)).
		Order("total_gross DESC").
		First(&prior).Error
	if err != nil {
		if IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return prior.TotalGross, true, nil
}

func (r *filmWeekRepository) MaxDate(ctx context.Context) (time.Time, bool, error) {
	var nt sql.NullTime
	row := r.db.WithContext(ctx).Model(&model.FilmWeek{}).Select("max(date)").Row()
	if err := row.Scan(&nt); err != nil {
		return time.Time{}, false, err
	}
	if !nt.Valid {
		return time.Time{}, false, nil
	}
	return nt.Time, true, nil
}

func (r *filmWeekRepository) DeleteByDate(ctx context.Context, date time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("date = ?", date).Delete(&model.FilmWeek{})
	return res.RowsAffected, res.Error
}

func (r *filmWeekRepository) DeleteByYear(ctx context.Context, year int) (int64, error) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	res := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, from.AddDate(1, 0, 0)).
		Delete(&model.FilmWeek{})
	return res.RowsAffected, res.Error
}

func (r *filmWeekRepository) ListByYear(ctx context.Context, year int) ([]*model.FilmWeek, error) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	var rows []*model.FilmWeek
	if err := r.db.WithContext(ctx).
		Preload("Film").
		Preload("Film.Distributors").
		Preload("Film.Countries").
		Where("date >= ? AND date < ?", from, from.AddDate(1, 0, 0)).
		Order("date ASC, rank ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

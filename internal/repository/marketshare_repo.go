package repository

import (
	"context"
	"fmt"
	"time"

	"BoxOfficeSync/internal/model"

	"gorm.io/gorm"
)

// EntityYearGross 某实体某年度的单周票房合计（市场份额重算的分子）
type EntityYearGross struct {
	EntityID uint64
	Year     int
	Gross    int64
}

// MarketShareRepository 市场份额仓储
type MarketShareRepository interface {
	// DeleteByTarget 删除目标年度（nil 为全部年度）与实体类型下的所有行
	DeleteByTarget(ctx context.Context, entityType model.EntityType, year *int) (int64, error)
	BulkCreate(ctx context.Context, shares []*model.MarketShare) error
	// SumGrossByEntityYear 经 film↔实体关联表汇总明细账 week_gross，按实体×年度分组
	SumGrossByEntityYear(ctx context.Context, entityType model.EntityType, year *int) ([]EntityYearGross, error)
	List(ctx context.Context, entityType model.EntityType, year *int) ([]*model.MarketShare, error)
}

type marketShareRepository struct {
	db *gorm.DB
}

func NewMarketShareRepository(db *gorm.DB) MarketShareRepository {
	return &marketShareRepository{db: db}
}

func (r *marketShareRepository) DeleteByTarget(ctx context.Context, entityType model.EntityType, year *int) (int64, error) {
	db := r.db.WithContext(ctx).Where("entity_type = ?", entityType)
	if year != nil {
		db = db.Where("year = ?", *year)
	}
	res := db.Delete(&model.MarketShare{})
	return res.RowsAffected, res.Error
}

func (r *marketShareRepository) BulkCreate(ctx context.Context, shares []*model.MarketShare) error {
	if len(shares) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(shares).Error
}

// SumGrossByEntityYear 分子查询：film_weeks 经 many2many 关联表连到实体。
// 无任何明细的实体自然不出现在结果里，属正常情况而非错误。
func (r *marketShareRepository) SumGrossByEntityYear(ctx context.Context, entityType model.EntityType, year *int) ([]EntityYearGross, error) {
	var join, column string
	switch entityType {
	case model.EntityDistributor:
		join, column = "film_distributors", "distributor_id"
	case model.EntityCountry:
		join, column = "film_countries", "country_id"
	default:
		return nil, fmt.Errorf("未支持的实体类型: %s", entityType)
	}

	query := fmt.Sprintf(`
		SELECT fe.%s AS entity_id,
		       EXTRACT(YEAR FROM fw.date)::int AS year,
		       COALESCE(SUM(fw.week_gross), 0) AS gross
		FROM film_weeks fw
		JOIN %s fe ON fe.film_id = fw.film_id`, column, join)
	args := []interface{}{}
	if year != nil {
		from := time.Date(*year, 1, 1, 0, 0, 0, 0, time.UTC)
		query += " WHERE fw.date >= ? AND fw.date < ?"
		args = append(args, from, from.AddDate(1, 0, 0))
	}
	query += fmt.Sprintf(" GROUP BY fe.%s, EXTRACT(YEAR FROM fw.date)", column)

	var rows []EntityYearGross
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *marketShareRepository) List(ctx context.Context, entityType model.EntityType, year *int) ([]*model.MarketShare, error) {
	db := r.db.WithContext(ctx).Where("entity_type = ?", entityType)
	if year != nil {
		db = db.Where("year = ?", *year)
	}
	var shares []*model.MarketShare
	if err := db.Order("year ASC, gross DESC").Find(&shares).Error; err != nil {
		return nil, err
	}
	return shares, nil
}

package repository

import (
	"context"
	"errors"
	"strings"

	"BoxOfficeSync/internal/model"

	"gorm.io/gorm"
)

// CountryRepository 国家/地区仓储
type CountryRepository interface {
	GetBySlug(ctx context.Context, slug string) (*model.Country, error)
	Create(ctx context.Context, c *model.Country) error
}

// DistributorRepository 发行商仓储
type DistributorRepository interface {
	GetBySlug(ctx context.Context, slug string) (*model.Distributor, error)
	Create(ctx context.Context, d *model.Distributor) error
}

// FilmRepository 影片仓储。ListByName 预加载发行商，供 (name, 发行商集合) 身份比较
type FilmRepository interface {
	ListByName(ctx context.Context, name string) ([]*model.Film, error)
	Create(ctx context.Context, f *model.Film) error
}

// IsNotFound 记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKey 唯一约束冲突（slug 撞车等历史脏数据场景，调用方可恢复）
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "23505")
}

type countryRepository struct {
	db *gorm.DB
}

func NewCountryRepository(db *gorm.DB) CountryRepository {
	return &countryRepository{db: db}
}

func (r *countryRepository) GetBySlug(ctx context.Context, slug string) (*model.Country, error) {
	var c model.Country
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *countryRepository) Create(ctx context.Context, c *model.Country) error {
	return r.db.WithContext(ctx).Create(c).Error
}

type distributorRepository struct {
	db *gorm.DB
}

func NewDistributorRepository(db *gorm.DB) DistributorRepository {
	return &distributorRepository{db: db}
}

func (r *distributorRepository) GetBySlug(ctx context.Context, slug string) (*model.Distributor, error) {
	var d model.Distributor
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *distributorRepository) Create(ctx context.Context, d *model.Distributor) error {
	return r.db.WithContext(ctx).Create(d).Error
}

type filmRepository struct {
	db *gorm.DB
}

func NewFilmRepository(db *gorm.DB) FilmRepository {
	return &filmRepository{db: db}
}

// ListByName 同名影片可能多条（不同发行商），由调用方比较发行商集合
func (r *filmRepository) ListByName(ctx context.Context, name string) ([]*model.Film, error) {
	var films []*model.Film
	if err := r.db.WithContext(ctx).
		Preload("Distributors").
		Where("name = ?", name).
		Find(&films).Error; err != nil {
		return nil, err
	}
	return films, nil
}

// Create 连同 many2many 关联一起落库
func (r *filmRepository) Create(ctx context.Context, f *model.Film) error {
	return r.db.WithContext(ctx).Create(f).Error
}

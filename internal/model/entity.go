package model

import (
	"time"
)

// EntityType 市场份额统计的实体类型
type EntityType string

const (
	EntityDistributor EntityType = "distributor" // 发行商
	EntityCountry     EntityType = "country"     // 国家/地区
)

// Country 国家/地区实体（name/slug 全局唯一，回滚永不删除）
type Country struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Name      string    `gorm:"column:name;type:varchar(128);uniqueIndex;not null;comment:规范化后的名称"`
	Slug      string    `gorm:"column:slug;type:varchar(128);uniqueIndex;not null;comment:URL安全唯一标识"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

// Distributor 发行商实体（唯一性规则与 Country 一致）
type Distributor struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Name      string    `gorm:"column:name;type:varchar(128);uniqueIndex;not null;comment:规范化后的名称"`
	Slug      string    `gorm:"column:slug;type:varchar(128);uniqueIndex;not null;comment:URL安全唯一标识"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

// Film 影片实体。name 不全局唯一：业务身份 = (name, 发行商集合)，
// 同名影片由不同发行商发行时是两条独立记录。slug 全局唯一，冲突时追加随机后缀。
type Film struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Name         string         `gorm:"column:name;type:varchar(256);index;not null;comment:规范化后的片名"`
	Slug         string         `gorm:"column:slug;type:varchar(256);uniqueIndex;not null;comment:URL安全唯一标识"`
	Distributors []*Distributor `gorm:"many2many:film_distributors;"` // 共同发行时多条
	Countries    []*Country     `gorm:"many2many:film_countries;"`    // 合拍片时多条
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

func (Country) TableName() string     { return "countries" }
func (Distributor) TableName() string { return "distributors" }
func (Film) TableName() string        { return "films" }

// DistributorIDs 返回排序无关的发行商ID集合，用于 (name, 发行商集合) 身份比较
func (f *Film) DistributorIDs() map[uint64]struct{} {
	ids := make(map[uint64]struct{}, len(f.Distributors))
	for _, d := range f.Distributors {
		ids[d.ID] = struct{}{}
	}
	return ids
}

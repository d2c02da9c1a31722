package model

import (
	"time"
)

// MarketShare 市场份额预计算表（实体×年度唯一），完全由明细账+周汇总推导，
// 每次重算整体删除后重建，可安全丢弃。
type MarketShare struct {
	ID             uint64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	EntityType     EntityType `gorm:"column:entity_type;type:varchar(16);not null;uniqueIndex:uq_entity_year;comment:实体类型：distributor/country"`
	EntityID       uint64     `gorm:"column:entity_id;type:bigint;not null;uniqueIndex:uq_entity_year;comment:关联实体ID"`
	Year           int        `gorm:"column:year;type:int;not null;uniqueIndex:uq_entity_year;comment:统计年度"`
	Gross          int64      `gorm:"column:gross;type:bigint;not null;comment:该实体年度单周票房合计"`
	MarketSharePct float64    `gorm:"column:market_share_pct;type:numeric(8,4);not null;comment:占全年总票房百分比"`
	CreatedAt      time.Time  `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
}

func (MarketShare) TableName() string { return "market_shares" }

package model

import (
	"time"

	"gorm.io/datatypes"
)

// 摄取事件类型（可恢复异常的审计记录，运维工具直接查表而非翻日志）
const (
	EventMissingSourceData = "missing_source_data" // 源数据行缺少必填字段，已跳过
	EventDuplicateEntity   = "duplicate_entity"    // slug 冲突，已用随机后缀恢复
	EventRollback          = "rollback"            // 执行了回滚
	EventIngestSummary     = "ingest_summary"      // 一次摄取的汇总
)

// 事件严重级别
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// IngestEvent 追加写的摄取事件日志
type IngestEvent struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Kind      string         `gorm:"column:kind;type:varchar(32);index;not null;comment:事件类型"`
	Severity  string         `gorm:"column:severity;type:varchar(16);not null;comment:严重级别：info/warning"`
	Message   string         `gorm:"column:message;type:varchar(512);not null;comment:事件描述"`
	Details   datatypes.JSON `gorm:"column:details;type:jsonb;comment:结构化上下文"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:发生时间"`
}

func (IngestEvent) TableName() string { return "ingest_events" }

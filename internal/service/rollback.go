package service

import (
	"context"
	"fmt"
	"time"

	"BoxOfficeSync/internal/model"
	"BoxOfficeSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// RollbackReport 回滚结果：删除的明细行数与清零的周汇总行数
type RollbackReport struct {
	Date          *time.Time `json:"date,omitempty"` // 按最后一周回滚时的目标日期
	Year          *int       `json:"year,omitempty"` // 按年度回滚时的目标年度
	LedgerDeleted int64      `json:"ledger_deleted"`
	WeeksZeroed   int64      `json:"weeks_zeroed"`
}

// RollbackService 回滚管理：删明细账行、清零周汇总字段，实体永不删除
// （实体可能被其他仍有效的周引用）。摄取失败后「回滚 + 重跑」即幂等重放。
type RollbackService struct {
	ledgerRepo repository.FilmWeekRepository
	weekRepo   repository.WeekRepository
	eventRepo  repository.IngestEventRepository
	logger     *logrus.Logger
}

func NewRollbackService(
	ledgerRepo repository.FilmWeekRepository,
	weekRepo repository.WeekRepository,
	eventRepo repository.IngestEventRepository,
	logger *logrus.Logger,
) *RollbackService {
	return &RollbackService{
		ledgerRepo: ledgerRepo,
		weekRepo:   weekRepo,
		eventRepo:  eventRepo,
		logger:     logger,
	}
}

// RollbackLast 回滚最近摄取的一周：取明细账最大日期，删该日期全部明细行，
// 清零对应周汇总行（行保留）。账本为空时是 no-op，返回零计数。
func (s *RollbackService) RollbackLast(ctx context.Context) (*RollbackReport, error) {
	maxDate, found, err := s.ledgerRepo.MaxDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询明细账最大日期失败: %w", err)
	}
	if !found {
		s.logger.Info("回滚目标不存在：明细账为空，无操作")
		return &RollbackReport{}, nil
	}

	deleted, err := s.ledgerRepo.DeleteByDate(ctx, maxDate)
	if err != nil {
		return nil, fmt.Errorf("删除明细账行失败: %w", err)
	}
	zeroed, err := s.weekRepo.ZeroByDate(ctx, maxDate)
	if err != nil {
		return nil, fmt.Errorf("清零周汇总失败: %w", err)
	}

	report := &RollbackReport{Date: &maxDate, LedgerDeleted: deleted, WeeksZeroed: zeroed}
	s.record(ctx, fmt.Sprintf("回滚最后一周 %s", maxDate.Format("2006-01-02")), report)
	s.logger.Infof("回滚完成：%s 删除明细 %d 行，清零周汇总 %d 行",
		maxDate.Format("2006-01-02"), deleted, zeroed)
	return report, nil
}

// RollbackYear 回滚整个日历年度：同样的删除/清零，范围为该年度所有日期
func (s *RollbackService) RollbackYear(ctx context.Context, year int) (*RollbackReport, error) {
	deleted, err := s.ledgerRepo.DeleteByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("删除 %d 年度明细账失败: %w", year, err)
	}
	zeroed, err := s.weekRepo.ZeroByYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("清零 %d 年度周汇总失败: %w", year, err)
	}

	report := &RollbackReport{Year: &year, LedgerDeleted: deleted, WeeksZeroed: zeroed}
	s.record(ctx, fmt.Sprintf("回滚 %d 年度", year), report)
	s.logger.Infof("回滚完成：%d 年度删除明细 %d 行，清零周汇总 %d 行", year, deleted, zeroed)
	return report, nil
}

func (s *RollbackService) record(ctx context.Context, message string, report *RollbackReport) {
	ev := &model.IngestEvent{
		Kind:     model.EventRollback,
		Severity: model.SeverityInfo,
		Message:  message,
		Details: datatypes.JSON(fmt.Sprintf(`{"ledger_deleted":%d,"weeks_zeroed":%d}`,
			report.LedgerDeleted, report.WeeksZeroed)),
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		s.logger.WithError(err).Warn("写入 rollback 事件失败")
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"BoxOfficeSync/internal/model"
	"BoxOfficeSync/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// ErrIngestionRunning 已有摄取在执行。外部调度器的重叠触发被直接拒绝而非排队。
var ErrIngestionRunning = errors.New("已有摄取任务在执行")

// IngestReport 一次摄取的结果汇总
type IngestReport struct {
	BatchID      string `json:"batch_id"`
	Total        int    `json:"total"`
	Ingested     int    `json:"ingested"`
	Skipped      int    `json:"skipped"`
	FilmsCreated int    `json:"films_created"`
}

// IngestService 摄取流水线：规范化 → 实体解析 → 单周票房推导 → 明细账 + 周汇总。
// 单写者、一次一批；批内逐行提交，不包整批事务，中途失败的残留状态靠回滚补偿。
type IngestService struct {
	mu         sync.Mutex
	resolver   *EntityResolver
	gross      *GrossCalculator
	ledgerRepo repository.FilmWeekRepository
	weekRepo   repository.WeekRepository
	eventRepo  repository.IngestEventRepository
	logger     *logrus.Logger
}

func NewIngestService(
	resolver *EntityResolver,
	gross *GrossCalculator,
	ledgerRepo repository.FilmWeekRepository,
	weekRepo repository.WeekRepository,
	eventRepo repository.IngestEventRepository,
	logger *logrus.Logger,
) *IngestService {
	return &IngestService{
		resolver:   resolver,
		gross:      gross,
		ledgerRepo: ledgerRepo,
		weekRepo:   weekRepo,
		eventRepo:  eventRepo,
		logger:     logger,
	}
}

// RunIngestion 摄取一批源数据行。并发触发时第二个调用立即得到 ErrIngestionRunning。
// 行级缺数据跳过并记事件；存储层错误中止整批上抛，重跑前需先回滚残留状态。
func (s *IngestService) RunIngestion(ctx context.Context, rows []model.SourceRow) (*IngestReport, error) {
	if !s.mu.TryLock() {
		return nil, ErrIngestionRunning
	}
	defer s.mu.Unlock()

	report := &IngestReport{
		BatchID: uuid.NewString(),
		Total:   len(rows),
	}
	s.logger.Infof("摄取开始，批次 %s，共 %d 行", report.BatchID, len(rows))

	for i := range rows {
		row := &rows[i]
		date, err := row.Validate()
		if err != nil {
			report.Skipped++
			s.recordSkip(ctx, report.BatchID, i, row)
			continue
		}

		countries, err := s.resolver.ResolveCountries(ctx, row.Country)
		if err != nil {
			return report, fmt.Errorf("第 %d 行解析国家失败: %w", i, err)
		}
		distributors, err := s.resolver.ResolveDistributors(ctx, row.Distributor)
		if err != nil {
			return report, fmt.Errorf("第 %d 行解析发行商失败: %w", i, err)
		}
		film, created, err := s.resolver.ResolveFilm(ctx, row.Film, distributors, countries)
		if err != nil {
			if errors.Is(err, model.ErrMissingSourceData) {
				report.Skipped++
				s.recordSkip(ctx, report.BatchID, i, row)
				continue
			}
			return report, fmt.Errorf("第 %d 行解析影片失败: %w", i, err)
		}
		if created {
			report.FilmsCreated++
		}

		weekGross, err := s.gross.WeekGross(ctx, film.ID, date, row.WeeksOnRelease, row.WeekendGross, row.TotalGross)
		if err != nil {
			return report, fmt.Errorf("第 %d 行推导单周票房失败: %w", i, err)
		}

		fw := &model.FilmWeek{
			FilmID:          film.ID,
			Date:            date,
			Rank:            row.Rank,
			WeeksOnRelease:  row.WeeksOnRelease,
			NumberOfCinemas: row.NumberOfCinemas,
			WeekendGross:    row.WeekendGross,
			WeekGross:       weekGross,
			TotalGross:      row.TotalGross,
			SiteAverage:     model.SiteAverage(row.WeekendGross, row.NumberOfCinemas),
		}
		if err := s.ledgerRepo.Create(ctx, fw); err != nil {
			return report, fmt.Errorf("第 %d 行写入明细账失败: %w", i, err)
		}
		if err := s.weekRepo.Accumulate(ctx, date, weekGross, row.WeekendGross, row.NumberOfCinemas, row.WeeksOnRelease); err != nil {
			return report, fmt.Errorf("第 %d 行累加周汇总失败: %w", i, err)
		}
		report.Ingested++
	}

	s.recordSummary(ctx, report)
	s.logger.Infof("摄取完成，批次 %s：入账 %d，跳过 %d，新建影片 %d",
		report.BatchID, report.Ingested, report.Skipped, report.FilmsCreated)
	return report, nil
}

func (s *IngestService) recordSkip(ctx context.Context, batchID string, index int, row *model.SourceRow) {
	s.logger.WithFields(logrus.Fields{
		"batch_id": batchID,
		"index":    index,
		"film":     row.Film,
		"date":     row.Date,
	}).Warn("源数据行缺少必填字段，已跳过")
	ev := &model.IngestEvent{
		Kind:     model.EventMissingSourceData,
		Severity: model.SeverityWarning,
		Message:  fmt.Sprintf("批次 %s 第 %d 行缺少必填字段，已跳过", batchID, index),
		Details:  datatypes.JSON(fmt.Sprintf(`{"batch_id":%q,"index":%d,"film":%q,"date":%q}`, batchID, index, row.Film, row.Date)),
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		s.logger.WithError(err).Warn("写入 missing_source_data 事件失败")
	}
}

func (s *IngestService) recordSummary(ctx context.Context, report *IngestReport) {
	ev := &model.IngestEvent{
		Kind:     model.EventIngestSummary,
		Severity: model.SeverityInfo,
		Message:  fmt.Sprintf("批次 %s 摄取完成", report.BatchID),
		Details: datatypes.JSON(fmt.Sprintf(`{"batch_id":%q,"total":%d,"ingested":%d,"skipped":%d,"films_created":%d}`,
			report.BatchID, report.Total, report.Ingested, report.Skipped, report.FilmsCreated)),
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		s.logger.WithError(err).Warn("写入 ingest_summary 事件失败")
	}
}

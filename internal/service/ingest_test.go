package service

import (
	"context"
	"testing"

	"BoxOfficeSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type ingestFixture struct {
	service    *IngestService
	ledgerRepo *fakeLedgerRepo
	weekRepo   *fakeWeekRepo
	eventRepo  *fakeEventRepo
	filmRepo   *fakeFilmRepo
}

func newIngestFixture() *ingestFixture {
	countryRepo := newFakeCountryRepo()
	distributorRepo := newFakeDistributorRepo()
	filmRepo := newFakeFilmRepo()
	ledgerRepo := newFakeLedgerRepo()
	weekRepo := newFakeWeekRepo()
	eventRepo := &fakeEventRepo{}
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	resolver := NewEntityResolver(NewNormalizer(nil, "/"), countryRepo, distributorRepo, filmRepo, eventRepo, logger)
	calc := NewGrossCalculator(ledgerRepo, 90)
	return &ingestFixture{
		service:    NewIngestService(resolver, calc, ledgerRepo, weekRepo, eventRepo, logger),
		ledgerRepo: ledgerRepo,
		weekRepo:   weekRepo,
		eventRepo:  eventRepo,
		filmRepo:   filmRepo,
	}
}

func week1Row() model.SourceRow {
	return model.SourceRow{
		Date: "2026-06-05", Rank: 1, Film: "NOPE", Country: "UK",
		WeekendGross: 500, Distributor: "20TH CENTURY FOX",
		WeeksOnRelease: 1, NumberOfCinemas: 250, TotalGross: 1000,
	}
}

func week2Row() model.SourceRow {
	return model.SourceRow{
		Date: "2026-06-12", Rank: 2, Film: "NOPE", Country: "UK",
		WeekendGross: 300, Distributor: "20TH CENTURY FOX",
		WeeksOnRelease: 2, NumberOfCinemas: 200, TotalGross: 1800,
	}
}

func TestRunIngestion_FirstAndSecondWeek(t *testing.T) {
	fx := newIngestFixture()
	ctx := context.Background()

	report, err := fx.service.RunIngestion(ctx, []model.SourceRow{week1Row()})
	require.NoError(t, err)
	require.Equal(t, 1, report.Ingested)
	require.Equal(t, 1, report.FilmsCreated)

	// 首周：单周票房=累计值；周汇总建行并计入新上映
	require.Len(t, fx.ledgerRepo.rows, 1)
	require.Equal(t, int64(1000), fx.ledgerRepo.rows[0].WeekGross)
	require.Equal(t, 2.0, fx.ledgerRepo.rows[0].SiteAverage)
	w1, err := fx.weekRepo.GetByDate(ctx, day("2026-06-05"))
	require.NoError(t, err)
	require.Equal(t, int64(1000), w1.WeekGross)
	require.Equal(t, int64(500), w1.WeekendGross)
	require.Equal(t, 1, w1.NumberOfReleases)

	// 次周：delta = 1800-1000；新上映数不增加
	report, err = fx.service.RunIngestion(ctx, []model.SourceRow{week2Row()})
	require.NoError(t, err)
	require.Equal(t, 1, report.Ingested)
	require.Equal(t, 0, report.FilmsCreated)

	require.Len(t, fx.ledgerRepo.rows, 2)
	require.Equal(t, int64(800), fx.ledgerRepo.rows[1].WeekGross)
	w2, err := fx.weekRepo.GetByDate(ctx, day("2026-06-12"))
	require.NoError(t, err)
	require.Equal(t, int64(800), w2.WeekGross)
	require.Equal(t, 0, w2.NumberOfReleases)
}

func TestRunIngestion_SkipsMissingSourceData(t *testing.T) {
	fx := newIngestFixture()

	rows := []model.SourceRow{
		{Date: "2026-06-05", Film: "", TotalGross: 100, WeeksOnRelease: 1},       // 缺片名
		{Date: "not-a-date", Film: "NOPE", TotalGross: 100, WeeksOnRelease: 1},   // 坏日期
		{Date: "2026-06-05", Film: "NOPE", TotalGross: -5, WeeksOnRelease: 1},    // 负票房
		week1Row(),
	}
	report, err := fx.service.RunIngestion(context.Background(), rows)
	require.NoError(t, err)
	require.Equal(t, 3, report.Skipped)
	require.Equal(t, 1, report.Ingested)
	require.Equal(t, 3, fx.eventRepo.countKind(model.EventMissingSourceData))
	require.Equal(t, 1, fx.eventRepo.countKind(model.EventIngestSummary))
}

func TestRunIngestion_OverlapSuppressed(t *testing.T) {
	fx := newIngestFixture()

	// 模拟一个在途批次占住锁：重叠触发必须被拒绝，而非排队
	fx.service.mu.Lock()
	_, err := fx.service.RunIngestion(context.Background(), []model.SourceRow{week1Row()})
	require.ErrorIs(t, err, ErrIngestionRunning)
	fx.service.mu.Unlock()

	_, err = fx.service.RunIngestion(context.Background(), []model.SourceRow{week1Row()})
	require.NoError(t, err)
}

func TestWeekAccumulate_OrderIndependent(t *testing.T) {
	// 同一日期的明细行以任意顺序累加，周汇总终态一致
	type entry struct {
		weekGross, weekendGross int64
		cinemas, weeksOnRelease int
	}
	entries := []entry{
		{1000, 500, 250, 1},
		{800, 300, 200, 2},
		{50, 20, 10, 1},
	}
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}}

	var results []*model.Week
	for _, order := range orders {
		w := &model.Week{Date: day("2026-06-05")}
		for _, i := range order {
			e := entries[i]
			w.Accumulate(e.weekGross, e.weekendGross, e.cinemas, e.weeksOnRelease)
		}
		results = append(results, w)
	}
	for _, w := range results[1:] {
		require.Equal(t, results[0].WeekGross, w.WeekGross)
		require.Equal(t, results[0].WeekendGross, w.WeekendGross)
		require.Equal(t, results[0].NumberOfCinemas, w.NumberOfCinemas)
		require.Equal(t, results[0].NumberOfReleases, w.NumberOfReleases)
	}
	require.Equal(t, int64(1850), results[0].WeekGross)
	require.Equal(t, 250, results[0].NumberOfCinemas)
	require.Equal(t, 2, results[0].NumberOfReleases)
}

func TestIngestRollbackReingest_LeftInverse(t *testing.T) {
	fx := newIngestFixture()
	ctx := context.Background()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	rollback := NewRollbackService(fx.ledgerRepo, fx.weekRepo, fx.eventRepo, logger)

	batch := []model.SourceRow{week1Row()}

	// 一次摄取的终态
	_, err := fx.service.RunIngestion(ctx, batch)
	require.NoError(t, err)
	once, err := fx.weekRepo.GetByDate(ctx, day("2026-06-05"))
	require.NoError(t, err)
	onceWeekGross, onceReleases := once.WeekGross, once.NumberOfReleases
	onceLedger := len(fx.ledgerRepo.rows)

	// 回滚 + 重摄取 ⇒ 与一次摄取等价
	_, err = rollback.RollbackLast(ctx)
	require.NoError(t, err)
	_, err = fx.service.RunIngestion(ctx, batch)
	require.NoError(t, err)

	again, err := fx.weekRepo.GetByDate(ctx, day("2026-06-05"))
	require.NoError(t, err)
	require.Equal(t, onceWeekGross, again.WeekGross)
	require.Equal(t, onceReleases, again.NumberOfReleases)
	require.Len(t, fx.ledgerRepo.rows, onceLedger)

	// 回滚后实体仍在：重摄取未重复建影片
	require.Len(t, fx.filmRepo.films, 1)
}

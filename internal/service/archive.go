package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"BoxOfficeSync/internal/model"
	"BoxOfficeSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// ArchiveDateLayout 归档文件的日期编码
const ArchiveDateLayout = "20060102"

// archiveHeader 固定列序，对外契约的一部分
var archiveHeader = []string{
	"date", "rank", "film", "country", "weekend_gross",
	"distributor", "weeks_on_release", "number_of_cinemas", "total_gross", "week_gross",
}

// ArchiveService 平面文件归档导出：复合国家/发行商字段重新用 "/" 拼接
type ArchiveService struct {
	ledgerRepo repository.FilmWeekRepository
	delimiter  string
	logger     *logrus.Logger
}

func NewArchiveService(ledgerRepo repository.FilmWeekRepository, delimiter string, logger *logrus.Logger) *ArchiveService {
	if delimiter == "" {
		delimiter = "/"
	}
	return &ArchiveService{ledgerRepo: ledgerRepo, delimiter: delimiter, logger: logger}
}

// ExportYear 把某年度的明细账按固定列序写入 w
func (s *ArchiveService) ExportYear(ctx context.Context, year int, w io.Writer) error {
	rows, err := s.ledgerRepo.ListByYear(ctx, year)
	if err != nil {
		return fmt.Errorf("查询 %d 年度明细账失败: %w", year, err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(archiveHeader); err != nil {
		return fmt.Errorf("写入归档表头失败: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(s.formatRow(row)); err != nil {
			return fmt.Errorf("写入归档行失败: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("刷写归档失败: %w", err)
	}
	s.logger.Infof("归档导出完成：%d 年度共 %d 行", year, len(rows))
	return nil
}

func (s *ArchiveService) formatRow(row *model.FilmWeek) []string {
	var film, countries, distributors string
	if row.Film != nil {
		film = row.Film.Name
		countryNames := make([]string, 0, len(row.Film.Countries))
		for _, c := range row.Film.Countries {
			countryNames = append(countryNames, c.Name)
		}
		countries = strings.Join(countryNames, s.delimiter)
		distNames := make([]string, 0, len(row.Film.Distributors))
		for _, d := range row.Film.Distributors {
			distNames = append(distNames, d.Name)
		}
		distributors = strings.Join(distNames, s.delimiter)
	}
	return []string{
		row.Date.Format(ArchiveDateLayout),
		strconv.Itoa(row.Rank),
		film,
		countries,
		strconv.FormatInt(row.WeekendGross, 10),
		distributors,
		strconv.Itoa(row.WeeksOnRelease),
		strconv.Itoa(row.NumberOfCinemas),
		strconv.FormatInt(row.TotalGross, 10),
		strconv.FormatInt(row.WeekGross, 10),
	}
}

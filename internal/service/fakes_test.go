package service

import (
	"context"
	"sort"
	"time"

	"BoxOfficeSync/internal/model"
	"BoxOfficeSync/internal/repository"

	"gorm.io/gorm"
)

// 内存仓储桩：实现 repository 接口，行为与 SQL 实现的契约一致，
// 让服务层测试无需 PostgreSQL。

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

type fakeCountryRepo struct {
	bySlug map[string]*model.Country
	nextID uint64
}

func newFakeCountryRepo() *fakeCountryRepo {
	return &fakeCountryRepo{bySlug: make(map[string]*model.Country)}
}

func (r *fakeCountryRepo) GetBySlug(_ context.Context, slug string) (*model.Country, error) {
	if c, ok := r.bySlug[slug]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCountryRepo) Create(_ context.Context, c *model.Country) error {
	if _, ok := r.bySlug[c.Slug]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.nextID++
	c.ID = r.nextID
	r.bySlug[c.Slug] = c
	return nil
}

type fakeDistributorRepo struct {
	bySlug map[string]*model.Distributor
	nextID uint64
}

func newFakeDistributorRepo() *fakeDistributorRepo {
	return &fakeDistributorRepo{bySlug: make(map[string]*model.Distributor)}
}

func (r *fakeDistributorRepo) GetBySlug(_ context.Context, slug string) (*model.Distributor, error) {
	if d, ok := r.bySlug[slug]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeDistributorRepo) Create(_ context.Context, d *model.Distributor) error {
	if _, ok := r.bySlug[d.Slug]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.nextID++
	d.ID = r.nextID
	r.bySlug[d.Slug] = d
	return nil
}

type fakeFilmRepo struct {
	films  []*model.Film
	nextID uint64
}

func newFakeFilmRepo() *fakeFilmRepo { return &fakeFilmRepo{} }

func (r *fakeFilmRepo) ListByName(_ context.Context, name string) ([]*model.Film, error) {
	var out []*model.Film
	for _, f := range r.films {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFilmRepo) Create(_ context.Context, f *model.Film) error {
	for _, existing := range r.films {
		if existing.Slug == f.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	f.ID = r.nextID
	r.films = append(r.films, f)
	return nil
}

type fakeLedgerRepo struct {
	rows   []*model.FilmWeek
	nextID uint64
}

func newFakeLedgerRepo() *fakeLedgerRepo { return &fakeLedgerRepo{} }

func (r *fakeLedgerRepo) Create(_ context.Context, fw *model.FilmWeek) error {
	r.nextID++
	fw.ID = r.nextID
	r.rows = append(r.rows, fw)
	return nil
}

func (r *fakeLedgerRepo) PriorTotalGross(_ context.Context, filmID uint64, date time.Time, lookback time.Duration) (int64, bool, error) {
	var best int64
	found := false
	from := date.Add(-lookback)
	for _, row := range r.rows {
		if row.FilmID != filmID {
			continue
		}
		if !row.Date.Before(date) || row.Date.Before(from) {
			continue
		}
		if !found || row.TotalGross > best {
			best = row.TotalGross
			found = true
		}
	}
	return best, found, nil
}

func (r *fakeLedgerRepo) MaxDate(_ context.Context) (time.Time, bool, error) {
	if len(r.rows) == 0 {
		return time.Time{}, false, nil
	}
	max := r.rows[0].Date
	for _, row := range r.rows[1:] {
		if row.Date.After(max) {
			max = row.Date
		}
	}
	return max, true, nil
}

func (r *fakeLedgerRepo) DeleteByDate(_ context.Context, date time.Time) (int64, error) {
	kept := r.rows[:0]
	var deleted int64
	for _, row := range r.rows {
		if dateKey(row.Date) == dateKey(date) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return deleted, nil
}

func (r *fakeLedgerRepo) DeleteByYear(_ context.Context, year int) (int64, error) {
	kept := r.rows[:0]
	var deleted int64
	for _, row := range r.rows {
		if row.Date.Year() == year {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return deleted, nil
}

func (r *fakeLedgerRepo) ListByYear(_ context.Context, year int) ([]*model.FilmWeek, error) {
	var out []*model.FilmWeek
	for _, row := range r.rows {
		if row.Date.Year() == year {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Rank < out[j].Rank
	})
	return out, nil
}

type fakeWeekRepo struct {
	byDate map[string]*model.Week
	nextID uint64
}

func newFakeWeekRepo() *fakeWeekRepo {
	return &fakeWeekRepo{byDate: make(map[string]*model.Week)}
}

func (r *fakeWeekRepo) Accumulate(_ context.Context, date time.Time, weekGross, weekendGross int64, cinemas, weeksOnRelease int) error {
	week, ok := r.byDate[dateKey(date)]
	if !ok {
		r.nextID++
		week = &model.Week{ID: r.nextID, Date: date}
		r.byDate[dateKey(date)] = week
	}
	week.Accumulate(weekGross, weekendGross, cinemas, weeksOnRelease)
	return nil
}

func (r *fakeWeekRepo) GetByDate(_ context.Context, date time.Time) (*model.Week, error) {
	if week, ok := r.byDate[dateKey(date)]; ok {
		return week, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeWeekRepo) List(_ context.Context, year *int) ([]*model.Week, error) {
	var out []*model.Week
	for _, week := range r.byDate {
		if year == nil || week.Date.Year() == *year {
			out = append(out, week)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeWeekRepo) ZeroByDate(_ context.Context, date time.Time) (int64, error) {
	week, ok := r.byDate[dateKey(date)]
	if !ok {
		return 0, nil
	}
	week.Zero()
	return 1, nil
}

func (r *fakeWeekRepo) ZeroByYear(_ context.Context, year int) (int64, error) {
	var zeroed int64
	for _, week := range r.byDate {
		if week.Date.Year() == year {
			week.Zero()
			zeroed++
		}
	}
	return zeroed, nil
}

func (r *fakeWeekRepo) SumWeekGrossByYear(_ context.Context, year *int) (map[int]int64, error) {
	totals := make(map[int]int64)
	for _, week := range r.byDate {
		if year == nil || week.Date.Year() == *year {
			totals[week.Date.Year()] += week.WeekGross
		}
	}
	return totals, nil
}

func (r *fakeWeekRepo) UpdateForecast(_ context.Context, date time.Time, high, medium, low int64) error {
	if week, ok := r.byDate[dateKey(date)]; ok {
		week.ForecastHigh, week.ForecastMedium, week.ForecastLow = high, medium, low
	}
	return nil
}

type fakeShareRepo struct {
	sums    []repository.EntityYearGross
	deleted int64
	created []*model.MarketShare
}

func (r *fakeShareRepo) DeleteByTarget(_ context.Context, _ model.EntityType, _ *int) (int64, error) {
	deleted := int64(len(r.created))
	r.created = nil
	r.deleted += deleted
	return deleted, nil
}

func (r *fakeShareRepo) BulkCreate(_ context.Context, shares []*model.MarketShare) error {
	r.created = append(r.created, shares...)
	return nil
}

func (r *fakeShareRepo) SumGrossByEntityYear(_ context.Context, _ model.EntityType, year *int) ([]repository.EntityYearGross, error) {
	if year == nil {
		return r.sums, nil
	}
	var out []repository.EntityYearGross
	for _, sum := range r.sums {
		if sum.Year == *year {
			out = append(out, sum)
		}
	}
	return out, nil
}

func (r *fakeShareRepo) List(_ context.Context, _ model.EntityType, _ *int) ([]*model.MarketShare, error) {
	return r.created, nil
}

type fakeEventRepo struct {
	events []*model.IngestEvent
}

func (r *fakeEventRepo) Append(_ context.Context, ev *model.IngestEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func (r *fakeEventRepo) ListRecent(_ context.Context, limit int) ([]*model.IngestEvent, error) {
	if limit <= 0 || limit > len(r.events) {
		limit = len(r.events)
	}
	return r.events[len(r.events)-limit:], nil
}

func (r *fakeEventRepo) countKind(kind string) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

package service

import (
	"context"
	"fmt"

	"BoxOfficeSync/internal/model"
	"BoxOfficeSync/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// EntityResolver 把规范化后的名称映射到持久的 Country/Distributor/Film 记录，
// 首次见到即建档。slug 撞车按可恢复事件处理：记录审计事件、随机后缀重试一次。
type EntityResolver struct {
	normalizer      *Normalizer
	countryRepo     repository.CountryRepository
	distributorRepo repository.DistributorRepository
	filmRepo        repository.FilmRepository
	eventRepo       repository.IngestEventRepository
	logger          *logrus.Logger
}

func NewEntityResolver(
	normalizer *Normalizer,
	countryRepo repository.CountryRepository,
	distributorRepo repository.DistributorRepository,
	filmRepo repository.FilmRepository,
	eventRepo repository.IngestEventRepository,
	logger *logrus.Logger,
) *EntityResolver {
	return &EntityResolver{
		normalizer:      normalizer,
		countryRepo:     countryRepo,
		distributorRepo: distributorRepo,
		filmRepo:        filmRepo,
		eventRepo:       eventRepo,
		logger:          logger,
	}
}

// ResolveCountries 解析可能含分隔符的国家字段，逐子项查找或建档
func (r *EntityResolver) ResolveCountries(ctx context.Context, raw string) ([]*model.Country, error) {
	var out []*model.Country
	for _, name := range r.normalizer.SplitNormalize(raw) {
		slug := Slugify(name)
		existing, err := r.countryRepo.GetBySlug(ctx, slug)
		if err == nil {
			out = append(out, existing)
			continue
		}
		if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("查询国家失败: %w", err)
		}
		c := &model.Country{Name: name, Slug: slug}
		if err := r.createWithRetry(ctx, name, slug, func(s string) error {
			c.Slug = s
			return r.countryRepo.Create(ctx, c)
		}); err != nil {
			return nil, fmt.Errorf("创建国家失败: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// ResolveDistributors 解析可能含分隔符的发行商字段（联合发行为多条）
func (r *EntityResolver) ResolveDistributors(ctx context.Context, raw string) ([]*model.Distributor, error) {
	var out []*model.Distributor
	for _, name := range r.normalizer.SplitNormalize(raw) {
		slug := Slugify(name)
		existing, err := r.distributorRepo.GetBySlug(ctx, slug)
		if err == nil {
			out = append(out, existing)
			continue
		}
		if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("查询发行商失败: %w", err)
		}
		d := &model.Distributor{Name: name, Slug: slug}
		if err := r.createWithRetry(ctx, name, slug, func(s string) error {
			d.Slug = s
			return r.distributorRepo.Create(ctx, d)
		}); err != nil {
			return nil, fmt.Errorf("创建发行商失败: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// ResolveFilm 影片身份 = (name, 发行商集合)：同名但发行商不同是两条独立记录。
// 返回 (film, created)，created 表示本次新建。
func (r *EntityResolver) ResolveFilm(ctx context.Context, rawTitle string, distributors []*model.Distributor, countries []*model.Country) (*model.Film, bool, error) {
	name := r.normalizer.Normalize(rawTitle)
	if name == "" {
		return nil, false, model.ErrMissingSourceData
	}

	candidates, err := r.filmRepo.ListByName(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("查询影片失败: %w", err)
	}
	want := distributorIDSet(distributors)
	for _, candidate := range candidates {
		if sameIDSet(candidate.DistributorIDs(), want) {
			return candidate, false, nil
		}
	}

	film := &model.Film{
		Name:         name,
		Slug:         Slugify(name),
		Distributors: distributors,
		Countries:    countries,
	}
	if err := r.createWithRetry(ctx, name, film.Slug, func(s string) error {
		film.Slug = s
		return r.filmRepo.Create(ctx, film)
	}); err != nil {
		return nil, false, fmt.Errorf("创建影片失败: %w", err)
	}
	return film, true, nil
}

// createWithRetry 建档并处理 slug 唯一约束冲突：记审计事件、换随机后缀、仅重试一次。
// 其他持久化错误原样上抛（不可恢复）。
func (r *EntityResolver) createWithRetry(ctx context.Context, name, slug string, create func(slug string) error) error {
	err := create(slug)
	if err == nil {
		return nil
	}
	if !repository.IsDuplicateKey(err) {
		return err
	}

	retrySlug := slugWithSuffix(slug)
	r.logger.WithFields(logrus.Fields{
		"name":       name,
		"slug":       slug,
		"retry_slug": retrySlug,
	}).Warn("slug 冲突，追加随机后缀后重试")
	r.recordDuplicate(ctx, name, slug, retrySlug)
	return create(retrySlug)
}

func (r *EntityResolver) recordDuplicate(ctx context.Context, name, slug, retrySlug string) {
	payload := datatypes.JSON(fmt.Sprintf(`{"name":%q,"slug":%q,"retry_slug":%q}`, name, slug, retrySlug))
	ev := &model.IngestEvent{
		Kind:     model.EventDuplicateEntity,
		Severity: model.SeverityWarning,
		Message:  fmt.Sprintf("slug 冲突已恢复: %s", slug),
		Details:  payload,
	}
	if err := r.eventRepo.Append(ctx, ev); err != nil {
		r.logger.WithError(err).Warn("写入 duplicate_entity 事件失败")
	}
}

func distributorIDSet(distributors []*model.Distributor) map[uint64]struct{} {
	ids := make(map[uint64]struct{}, len(distributors))
	for _, d := range distributors {
		ids[d.ID] = struct{}{}
	}
	return ids
}

func sameIDSet(a, b map[uint64]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

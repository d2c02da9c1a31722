package model

import (
	"time"
)

// FilmWeek 明细账表：每部影片每个上报周一行，回滚与归档导出的事实来源。
// date 不单独唯一（同一日期有多部影片）。
type FilmWeek struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	FilmID          uint64    `gorm:"column:film_id;type:bigint;not null;index:idx_film_date;comment:关联影片ID"`
	Film            *Film     `gorm:"foreignKey:FilmID"`
	Date            time.Time `gorm:"column:date;type:date;not null;index:idx_film_date;index;comment:上报周日期"`
	Rank            int       `gorm:"column:rank;type:int;not null;comment:当周排名"`
	WeeksOnRelease  int       `gorm:"column:weeks_on_release;type:int;not null;comment:上映周数"`
	NumberOfCinemas int       `gorm:"column:number_of_cinemas;type:int;not null;comment:放映影院数"`
	WeekendGross    int64     `gorm:"column:weekend_gross;type:bigint;not null;comment:周末票房"`
	WeekGross       int64     `gorm:"column:week_gross;type:bigint;not null;comment:推导出的单周票房"`
	TotalGross      int64     `gorm:"column:total_gross;type:bigint;not null;comment:累计总票房"`
	SiteAverage     float64   `gorm:"column:site_average;type:numeric(18,2);not null;comment:单影院平均=weekend_gross/number_of_cinemas"`
	CreatedAt       time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
}

func (FilmWeek) TableName() string { return "film_weeks" }

// SiteAverage 单影院平均票房，影院数为 0 时返回 0
func SiteAverage(weekendGross int64, cinemas int) float64 {
	if cinemas == 0 {
		return 0
	}
	return float64(weekendGross) / float64(cinemas)
}

// Week 周汇总表：每个日历周一行，跨当周所有上报影片累加。
// forecast_* 与 admissions 由外部协作方写入，摄取与回滚均不触碰 admissions。
type Week struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Date             time.Time `gorm:"column:date;type:date;uniqueIndex;not null;comment:周日期，全表唯一"`
	NumberOfCinemas  int       `gorm:"column:number_of_cinemas;type:int;not null;default:0;comment:当周最大影院数"`
	NumberOfReleases int       `gorm:"column:number_of_releases;type:int;not null;default:0;comment:当周新上映影片数"`
	WeekendGross     int64     `gorm:"column:weekend_gross;type:bigint;not null;default:0;comment:周末票房合计"`
	WeekGross        int64     `gorm:"column:week_gross;type:bigint;not null;default:0;comment:单周票房合计"`
	Admissions       int64     `gorm:"column:admissions;type:bigint;not null;default:0;comment:观影人次，外部录入"`
	ForecastHigh     int64     `gorm:"column:forecast_high;type:bigint;not null;default:0;comment:票房预测上限"`
	ForecastMedium   int64     `gorm:"column:forecast_medium;type:bigint;not null;default:0;comment:票房预测中值"`
	ForecastLow      int64     `gorm:"column:forecast_low;type:bigint;not null;default:0;comment:票房预测下限"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间"`
	UpdatedAt        time.Time `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间"`
}

func (Week) TableName() string { return "weeks" }

// Accumulate 把一行明细并入周汇总：票房累加、影院数取最大值、
// weeks_on_release==1 时新上映数+1。该操作刻意不幂等，重复摄取需先回滚。
func (w *Week) Accumulate(weekGross, weekendGross int64, cinemas, weeksOnRelease int) {
	w.WeekGross += weekGross
	w.WeekendGross += weekendGross
	if cinemas > w.NumberOfCinemas {
		w.NumberOfCinemas = cinemas
	}
	if weeksOnRelease == 1 {
		w.NumberOfReleases++
	}
}

// Zero 回滚时清零累加字段，行本身保留（admissions 与 forecast_* 不动）
func (w *Week) Zero() {
	w.WeekendGross = 0
	w.WeekGross = 0
	w.NumberOfCinemas = 0
	w.NumberOfReleases = 0
}

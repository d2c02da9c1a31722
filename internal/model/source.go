package model

import (
	"errors"
	"strings"
	"time"
)

// SourceDateLayout 外部抓取器上报的日期格式
const SourceDateLayout = "2006-01-02"

// ErrMissingSourceData 源数据行缺少必填字段
var ErrMissingSourceData = errors.New("源数据行缺少必填字段")

// SourceRow 外部抓取器/文件读取器产出的原始行，每部影片每个上报周一行。
// country/distributor 为自由文本，可能含 "/" 分隔的复合值。
type SourceRow struct {
	Date            string `json:"date"`              // 上报周日期（2006-01-02）
	Rank            int    `json:"rank"`              // 当周排名
	Film            string `json:"film"`              // 片名（自由文本）
	Country         string `json:"country"`           // 国家/地区（可复合）
	WeekendGross    int64  `json:"weekend_gross"`     // 周末票房
	Distributor     string `json:"distributor"`       // 发行商（可复合，可为空）
	WeeksOnRelease  int    `json:"weeks_on_release"`  // 上映周数
	NumberOfCinemas int    `json:"number_of_cinemas"` // 放映影院数
	TotalGross      int64  `json:"total_gross"`       // 累计总票房
}

// Validate 校验必填字段并解析日期。片名与日期缺一不可；
// 票房为负视同缺失（上游偶发的解析脏数据）。
func (r *SourceRow) Validate() (time.Time, error) {
	if strings.TrimSpace(r.Film) == "" {
		return time.Time{}, ErrMissingSourceData
	}
	if r.TotalGross < 0 || r.WeekendGross < 0 {
		return time.Time{}, ErrMissingSourceData
	}
	date, err := time.Parse(SourceDateLayout, r.Date)
	if err != nil {
		return time.Time{}, ErrMissingSourceData
	}
	return date, nil
}

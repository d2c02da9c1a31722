package service

import (
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Normalizer 自由文本字段（片名/发行商/国家）的拼写规范化。
// 纯函数，无副作用；修正表每次运行加载一次，加载失败时直接透传清洗值。
type Normalizer struct {
	corrections map[string]string
	prefixKeys  []string // 长度降序，保证前缀匹配取最具体的键
	delimiter   string
}

// NewNormalizer 创建规范化器。corrections 可为 nil（表不可用时的透传模式）
func NewNormalizer(corrections map[string]string, delimiter string) *Normalizer {
	if delimiter == "" {
		delimiter = "/"
	}
	keys := make([]string, 0, len(corrections))
	for k := range corrections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return &Normalizer{
		corrections: corrections,
		prefixKeys:  keys,
		delimiter:   delimiter,
	}
}

// LoadCorrections 从两列 CSV（错误拼写,规范拼写）加载修正表。
// 文件缺失或不可读时返回空表并告警，绝不让摄取因此失败。
func LoadCorrections(path string, logger *logrus.Logger) map[string]string {
	corrections := make(map[string]string)
	if path == "" {
		return corrections
	}
	f, err := os.Open(path)
	if err != nil {
		logger.WithError(err).Warnf("修正表不可用，规范化降级为透传: %s", path)
		return corrections
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.WithError(err).Warn("修正表存在坏行，已跳过")
			continue
		}
		if len(record) < 2 {
			continue
		}
		key := cleanField(record[0])
		value := cleanField(record[1])
		if key != "" && value != "" {
			corrections[key] = value
		}
	}
	return corrections
}

// cleanField 去空白、转大写，并把 ", THE" 后缀改写为 "THE " 前缀
func cleanField(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if strings.HasSuffix(s, ", THE") {
		s = "THE " + strings.TrimSuffix(s, ", THE")
	}
	return s
}

// Normalize 清洗单个字段并套用修正表：先精确匹配，再按键前缀匹配
func (n *Normalizer) Normalize(raw string) string {
	s := cleanField(raw)
	if s == "" {
		return s
	}
	if corrected, ok := n.corrections[s]; ok {
		return corrected
	}
	for _, key := range n.prefixKeys {
		if strings.HasPrefix(s, key) {
			return n.corrections[key]
		}
	}
	return s
}

// SplitNormalize 复合字段（如联合发行 "A/B"）逐子项规范化，空子项丢弃
func (n *Normalizer) SplitNormalize(raw string) []string {
	var out []string
	for _, token := range strings.Split(raw, n.delimiter) {
		if normalized := n.Normalize(token); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 由展示名派生 URL 安全的唯一标识
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// slugWithSuffix slug 撞车时追加随机段消歧
func slugWithSuffix(slug string) string {
	return slug + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

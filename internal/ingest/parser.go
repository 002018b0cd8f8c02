// Package ingest parses downloaded or uploaded ad-performance reports
// into canonical rows and rolls them up into daily metric rows.
package ingest

import (
	"math"
	"strconv"
	"strings"

	"adsync/internal/domain"
)

// fieldAliases maps each canonical field to a prioritized list of header
// spellings seen across report exports: English, abbreviated and Korean
// variants. The first present, non-empty match wins. This tolerance is
// load-bearing: exports vary by account and locale and the pipeline must
// absorb them without a schema change.
var fieldAliases = map[string][]string{
	"date":        {"date", "day", "stat_dt", "statdt", "일자", "날짜"},
	"impressions": {"impressions", "impression", "imp", "impcnt", "노출수", "노출"},
	"clicks":      {"clicks", "click", "clk", "clkcnt", "클릭수", "클릭"},
	"cost":        {"cost", "spend", "salesamt", "총비용", "비용", "광고비"},
	"conversions": {"conversions", "conversion", "conv", "ccnt", "전환수", "전환"},
	"revenue":     {"revenue", "sales", "convamt", "매출", "매출액", "전환매출"},
	"device":      {"device", "pcmobiletp", "디바이스", "기기"},
	"channel":     {"channel", "채널", "매체"},
	"source":      {"source", "소스"},
	"campaign":    {"campaign", "campaign_name", "campaignname", "캠페인", "캠페인명"},
	"ad_group":    {"adgroup", "ad_group", "adgroup_name", "광고그룹"},
	"keyword":     {"keyword", "키워드"},
	"creative":    {"creative", "ad", "소재", "광고소재"},
	"avg_rank":    {"avgrank", "avg_rank", "avgposition", "평균노출순위", "평균순위"},
}

// ParseResult carries normalized rows plus how many data lines were
// dropped for lacking a usable date.
type ParseResult struct {
	Rows    []domain.Row
	Dropped int
}

// Parse turns delimited report text into canonical rows. The first
// non-empty line is the header; remaining lines split on commas. Quoted
// fields are deliberately unsupported: platform exports never quote, and
// the simple split keeps the tolerant alias lookup cheap.
//
// Metric fields that cannot be resolved default to zero. A row without a
// resolvable date is dropped. A header without any date column at all is
// a hard ParseError, since every row would silently vanish otherwise.
func Parse(text string) (ParseResult, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return ParseResult{}, &domain.ParseError{Reason: "empty report"}
	}

	header := splitCells(lines[0])
	index := resolveColumns(header)
	dateIdx, ok := index["date"]
	if !ok {
		return ParseResult{}, &domain.ParseError{Reason: "no date column in header: " + lines[0]}
	}

	var result ParseResult
	for _, line := range lines[1:] {
		cells := splitCells(line)

		date, ok := normalizeDate(cellAt(cells, dateIdx))
		if !ok {
			result.Dropped++
			continue
		}

		row := domain.Row{
			Date:        date,
			Impressions: numberAt(cells, index, "impressions"),
			Clicks:      numberAt(cells, index, "clicks"),
			Cost:        numberAt(cells, index, "cost"),
			Conversions: numberAt(cells, index, "conversions"),
			Revenue:     numberAt(cells, index, "revenue"),
			Device:      stringAt(cells, index, "device"),
			Channel:     stringAt(cells, index, "channel"),
			Source:      stringAt(cells, index, "source"),
			Campaign:    stringAt(cells, index, "campaign"),
			AdGroup:     stringAt(cells, index, "ad_group"),
			Keyword:     stringAt(cells, index, "keyword"),
			Creative:    stringAt(cells, index, "creative"),
			AvgRank:     numberAt(cells, index, "avg_rank"),
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func splitCells(line string) []string {
	cells := strings.Split(line, ",")
	for i, cell := range cells {
		cells[i] = strings.TrimSpace(cell)
	}
	return cells
}

// resolveColumns maps canonical field names to column positions using the
// alias priority order. The first alias present in the header wins.
func resolveColumns(header []string) map[string]int {
	position := make(map[string]int, len(header))
	for i, cell := range header {
		key := strings.ToLower(strings.TrimPrefix(cell, "\uFEFF"))
		if _, seen := position[key]; !seen {
			position[key] = i
		}
	}

	index := make(map[string]int)
	for field, aliases := range fieldAliases {
		for _, alias := range aliases {
			if i, ok := position[alias]; ok {
				index[field] = i
				break
			}
		}
	}
	return index
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func stringAt(cells []string, index map[string]int, field string) string {
	i, ok := index[field]
	if !ok {
		return ""
	}
	return cellAt(cells, i)
}

func numberAt(cells []string, index map[string]int, field string) float64 {
	i, ok := index[field]
	if !ok {
		return 0
	}
	return coerceNumber(cellAt(cells, i))
}

var numberStrip = strings.NewReplacer(",", "", "₩", "", "$", "", "%", "", " ", "", "\t", "")

// coerceNumber turns a locale-formatted cell into a non-negative float.
// Currency symbols, percent signs, thousands separators and whitespace
// are stripped; anything that still fails to parse, or parses to a
// non-finite or negative value, becomes zero.
func coerceNumber(cell string) float64 {
	cleaned := numberStrip.Replace(strings.TrimSpace(cell))
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// normalizeDate canonicalizes the date cell to YYYY-MM-DD. Dotted,
// slashed and compact eight-digit forms all appear in the wild.
func normalizeDate(cell string) (string, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return "", false
	}
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	if len(s) == 8 && !strings.Contains(s, "-") {
		s = s[:4] + "-" + s[4:6] + "-" + s[6:]
	}
	if !validISODate(s) {
		return "", false
	}
	return s, true
}

func validISODate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	year, err1 := strconv.Atoi(s[:4])
	month, err2 := strconv.Atoi(s[5:7])
	day, err3 := strconv.Atoi(s[8:])
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	return year >= 1 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}

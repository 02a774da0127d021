package ecg

import (
	"math"
	"strconv"
	"strings"

	"github.com/Samrat740/sleep-apnea-screening/internal/domain"
)

const headerMarker = "ecg"

// Result серия после фильтрации и количество отброшенных строк данных
type Result struct {
	Series  domain.EcgSeries
	Skipped int
}

// Parse разбирает текст файла в плотную серию точек.
// Ошибок не возвращает: пустой или полностью битый файл даёт пустую серию.
func Parse(text string) Result {
	lines := nonEmptyLines(text)

	if len(lines) > 0 && strings.Contains(strings.ToLower(lines[0]), headerMarker) {
		lines = lines[1:]
	}

	series := make(domain.EcgSeries, 0, len(lines))
	skipped := 0
	for _, line := range lines {
		value, ok := parseSample(line)
		if !ok {
			skipped++
			continue
		}
		series = append(series, domain.EcgSample{Index: len(series), Value: value})
	}

	return Result{Series: series, Skipped: skipped}
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}

// parseSample берёт первое поле строки (до , ; или табуляции) и требует конечное число
func parseSample(line string) (float64, bool) {
	field := line
	if i := strings.IndexAny(line, ",;\t"); i >= 0 {
		field = strings.TrimSpace(line[:i])
	}

	value, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

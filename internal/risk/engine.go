package risk

import "github.com/Samrat740/sleep-apnea-screening/internal/domain"

const (
	highScoreThreshold     = 8
	moderateScoreThreshold = 4
)

// BMI считает индекс массы тела, рост переводится из сантиметров в метры
func BMI(weightKg, heightCm float64) float64 {
	heightM := heightCm / 100
	return weightKg / (heightM * heightM)
}

// Score суммирует баллы по всем факторам анкеты
func Score(p domain.HealthProfile, bmi float64) int {
	score := 0

	switch {
	case p.Age > 50:
		score += 2
	case p.Age > 40:
		score += 1
	}

	if p.Gender == domain.GenderMale {
		score++
	}

	switch {
	case bmi > 30:
		score += 3
	case bmi > 25:
		score += 2
	case bmi > 23:
		score += 1
	}

	if p.Snoring {
		score += 2
	}
	if p.Tired {
		score += 2
	}
	if p.Observed {
		score += 3
	}
	if p.HighBloodPressure {
		score += 2
	}

	return score
}

// Classify переводит балл в уровень риска, граница относится к верхнему уровню
func Classify(score int) domain.RiskLevel {
	switch {
	case score >= highScoreThreshold:
		return domain.RiskHigh
	case score >= moderateScoreThreshold:
		return domain.RiskModerate
	default:
		return domain.RiskLow
	}
}

// Assess чистая функция: анкета -> результат. Без побочных эффектов.
func Assess(p domain.HealthProfile) domain.RiskResult {
	bmi := BMI(p.Weight, p.Height)
	score := Score(p, bmi)
	level := Classify(score)

	return domain.RiskResult{
		Score:     score,
		Level:     level,
		BMI:       bmi,
		Message:   domain.RiskMessage(level),
		NextSteps: domain.RiskNextSteps(level),
	}
}

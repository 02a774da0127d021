package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidProfile оборачивает все ошибки валидации анкеты
var ErrInvalidProfile = errors.New("invalid health profile")

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// HealthProfile анкета пользователя для расчёта риска
type HealthProfile struct {
	Age               int     `json:"age"`
	Gender            Gender  `json:"gender"`
	Height            float64 `json:"height"` // в сантиметрах
	Weight            float64 `json:"weight"` // в килограммах
	Snoring           bool    `json:"snoring"`
	Tired             bool    `json:"tired"`
	Observed          bool    `json:"observed"`
	HighBloodPressure bool    `json:"bp"`
}

// Validate проверяет, что анкету можно передать в расчёт
func (p HealthProfile) Validate() error {
	if p.Age <= 0 {
		return fmt.Errorf("%w: age must be positive", ErrInvalidProfile)
	}
	if p.Height <= 0 {
		return fmt.Errorf("%w: height must be positive", ErrInvalidProfile)
	}
	if p.Weight <= 0 {
		return fmt.Errorf("%w: weight must be positive", ErrInvalidProfile)
	}
	switch p.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidProfile, p.Gender)
	}
	return nil
}

// RiskResult результат расчёта риска
type RiskResult struct {
	Score     int       `json:"score"`
	Level     RiskLevel `json:"level"`
	BMI       float64   `json:"bmi"`
	Message   string    `json:"message"`
	NextSteps []string  `json:"next_steps"`
}

// EcgSample одна точка ЭКГ после парсинга
type EcgSample struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// EcgSeries плотная последовательность точек, индексы 0..N-1
type EcgSeries []EcgSample

// PredictionResult ответ классификатора вместе с локальным сообщением
type PredictionResult struct {
	Probability float64 `json:"probability"`
	Label       string  `json:"label"`
	Message     string  `json:"message"`
}

// EcgAnalysis результат одной загрузки файла
type EcgAnalysis struct {
	FileName    string           `json:"file_name"`
	Series      EcgSeries        `json:"series"`
	SkippedRows int              `json:"skipped_rows"`
	Prediction  PredictionResult `json:"prediction"`
}

type ServerState string

const (
	ServerIdle   ServerState = "idle"
	ServerWaking ServerState = "waking"
	ServerOnline ServerState = "online"
)

// SessionState то, что клиент получает при загрузке страницы
type SessionState struct {
	SessionID      string      `json:"session_id"`
	ServerState    ServerState `json:"server_state"`
	ShowWakePrompt bool        `json:"show_wake_prompt"`
}

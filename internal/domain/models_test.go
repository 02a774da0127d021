package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredictionMessage(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected string
	}{
		{"apnea detected", "Sleep Apnea Detected", messageApneaDetected},
		{"likely apnea", "Likely Apnea Condition", messageLikelyApnea},
		{"normal pattern", "Normal ECG Pattern", messageNoPattern},
		{"unknown default", LabelUnknown, messageNoPattern},
		{"novel label", "Something New", messageNoPattern},
		{"case differs", "sleep apnea detected", messageNoPattern},
		{"empty", "", messageNoPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PredictionMessage(tt.label))
		})
	}
}

func TestFailedPrediction(t *testing.T) {
	p := FailedPrediction()
	assert.Equal(t, 0.0, p.Probability)
	assert.Equal(t, "Error", p.Label)
	assert.Equal(t, MessageAnalysisFailed, p.Message)
}

func TestRiskNextSteps(t *testing.T) {
	for _, level := range []RiskLevel{RiskLow, RiskModerate, RiskHigh} {
		steps := RiskNextSteps(level)
		assert.Len(t, steps, 3, string(level))
		assert.NotEmpty(t, RiskMessage(level))
	}

	steps := RiskNextSteps(RiskHigh)
	steps[0] = "changed"
	assert.Equal(t, "Schedule an appointment with a sleep specialist", RiskNextSteps(RiskHigh)[0])

	assert.Nil(t, RiskNextSteps("Extreme"))
}

func TestHealthProfile_Validate(t *testing.T) {
	valid := HealthProfile{Age: 30, Gender: GenderMale, Height: 170, Weight: 70}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *HealthProfile)
	}{
		{"zero age", func(p *HealthProfile) { p.Age = 0 }},
		{"negative height", func(p *HealthProfile) { p.Height = -1 }},
		{"zero weight", func(p *HealthProfile) { p.Weight = 0 }},
		{"unknown gender", func(p *HealthProfile) { p.Gender = "male" }},
		{"empty gender", func(p *HealthProfile) { p.Gender = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProfile))
		})
	}
}

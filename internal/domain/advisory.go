package domain

const (
	LabelApneaDetected = "Sleep Apnea Detected"
	LabelLikelyApnea   = "Likely Apnea Condition"
	LabelError         = "Error"
	LabelUnknown       = "Unknown"
)

const (
	messageApneaDetected = "High probability of sleep apnea detected. Please consult a healthcare professional."
	messageLikelyApnea   = "Possible sleep apnea indicators found. Consider further medical evaluation."
	messageNoPattern     = "No significant sleep apnea patterns detected in the ECG data."

	// MessageAnalysisFailed отдаётся вместе с меткой Error при любой ошибке классификатора
	MessageAnalysisFailed = "Failed to analyze ECG data. Please try again or check the file format."
)

// PredictionMessage сопоставляет метку классификатора с сообщением.
// Любая неизвестная метка получает сообщение "паттерн не найден".
func PredictionMessage(label string) string {
	switch label {
	case LabelApneaDetected:
		return messageApneaDetected
	case LabelLikelyApnea:
		return messageLikelyApnea
	default:
		return messageNoPattern
	}
}

// FailedPrediction синтетический результат при недоступном классификаторе
func FailedPrediction() PredictionResult {
	return PredictionResult{
		Probability: 0,
		Label:       LabelError,
		Message:     MessageAnalysisFailed,
	}
}

type advisory struct {
	message   string
	nextSteps [3]string
}

var riskAdvisories = map[RiskLevel]advisory{
	RiskHigh: {
		message: "High risk of sleep apnea detected. We strongly recommend consulting a sleep specialist for a comprehensive evaluation.",
		nextSteps: [3]string{
			"Schedule an appointment with a sleep specialist",
			"Consider a sleep study (polysomnography)",
			"Monitor your symptoms and keep a sleep diary",
		},
	},
	RiskModerate: {
		message: "Moderate risk of sleep apnea. Consider discussing your symptoms with a healthcare provider for further assessment.",
		nextSteps: [3]string{
			"Discuss your symptoms with your primary care physician",
			"Practice good sleep hygiene",
			"Consider lifestyle modifications (weight management, exercise)",
		},
	},
	RiskLow: {
		message: "Low risk of sleep apnea based on the provided information. Maintain healthy sleep habits and monitor any changes in symptoms.",
		nextSteps: [3]string{
			"Maintain healthy sleep habits",
			"Stay physically active",
			"Monitor any changes in your sleep patterns",
		},
	},
}

// RiskMessage возвращает сообщение для уровня риска
func RiskMessage(level RiskLevel) string {
	return riskAdvisories[level].message
}

// RiskNextSteps возвращает копию рекомендаций, чтобы таблицу нельзя было изменить снаружи
func RiskNextSteps(level RiskLevel) []string {
	a, ok := riskAdvisories[level]
	if !ok {
		return nil
	}
	steps := make([]string, len(a.nextSteps))
	copy(steps, a.nextSteps[:])
	return steps
}

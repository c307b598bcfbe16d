package triage

// Assessment is the outcome of running the rules over a symptom set.
type Assessment struct {
	RiskLevel      string
	Recommendation string
}

// Assess runs the fixed rule table. Rules are evaluated top-down; the first
// match wins, so the severe combinations must stay ahead of the mild ones.
func Assess(s Symptoms) Assessment {
	switch {
	case s.Fever && s.Cough && s.DifficultyBreathing:
		return Assessment{
			RiskLevel: RiskHigh,
			Recommendation: "HIGH RISK: You are experiencing severe symptoms that require immediate " +
				"medical attention. Please visit the nearest emergency room or call emergency services " +
				"right away. Symptoms like fever, cough, and difficulty breathing can indicate a serious " +
				"respiratory condition.",
		}
	case s.ChestPain:
		return Assessment{
			RiskLevel: RiskHigh,
			Recommendation: "HIGH RISK: Chest pain can be a sign of a serious condition. Please seek " +
				"immediate medical attention or call emergency services. Do not wait or drive yourself " +
				"if the pain is severe.",
		}
	case s.DifficultyBreathing:
		return Assessment{
			RiskLevel: RiskHigh,
			Recommendation: "HIGH RISK: Difficulty breathing requires immediate medical evaluation. " +
				"Please go to the nearest emergency room or call emergency services.",
		}
	case s.Fever && (s.Weakness || s.Headache || s.BodyAches):
		return Assessment{
			RiskLevel: RiskMedium,
			Recommendation: "MEDIUM RISK: Your symptoms suggest a possible flu or viral infection. " +
				"We recommend scheduling an appointment with a healthcare provider within 24-48 hours. " +
				"In the meantime: rest, stay hydrated, and monitor your temperature. Seek immediate " +
				"care if symptoms worsen.",
		}
	case (s.Fever && s.Cough) || (s.Nausea && s.Diarrhea) || (s.Fever && s.SoreThroat):
		return Assessment{
			RiskLevel: RiskMedium,
			Recommendation: "MEDIUM RISK: You have multiple symptoms that should be evaluated by a " +
				"healthcare provider. Please schedule an appointment within the next 1-2 days. Monitor " +
				"your symptoms and seek immediate care if they worsen.",
		}
	case s.Headache || s.SoreThroat || s.Cough || s.Weakness:
		return Assessment{
			RiskLevel: RiskLow,
			Recommendation: "LOW RISK: Your symptoms appear mild. We recommend rest, staying hydrated, " +
				"and over-the-counter medication if needed. If symptoms persist for more than 3-5 days " +
				"or worsen, please schedule an appointment. Monitor for any new or severe symptoms.",
		}
	default:
		return Assessment{
			RiskLevel: RiskLow,
			Recommendation: "LOW RISK: Based on the information provided, no immediate medical " +
				"attention appears necessary. However, if you have concerns or symptoms develop, " +
				"please don't hesitate to contact a healthcare provider or schedule an appointment.",
		}
	}
}

// RiskColor maps a risk level to its UI color.
func RiskColor(level string) string {
	switch level {
	case RiskLow:
		return "green"
	case RiskMedium:
		return "yellow"
	case RiskHigh:
		return "red"
	default:
		return "gray"
	}
}

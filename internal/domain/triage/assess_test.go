package triage

import "testing"

func TestAssess_RuleTable(t *testing.T) {
	cases := []struct {
		name     string
		symptoms Symptoms
		want     string
	}{
		{"severe respiratory combo", Symptoms{Fever: true, Cough: true, DifficultyBreathing: true}, RiskHigh},
		{"chest pain alone", Symptoms{ChestPain: true}, RiskHigh},
		{"chest pain overrides mild flags", Symptoms{ChestPain: true, Headache: true}, RiskHigh},
		{"difficulty breathing alone", Symptoms{DifficultyBreathing: true}, RiskHigh},
		{"fever with weakness", Symptoms{Fever: true, Weakness: true}, RiskMedium},
		{"fever with headache", Symptoms{Fever: true, Headache: true}, RiskMedium},
		{"fever with body aches", Symptoms{Fever: true, BodyAches: true}, RiskMedium},
		{"fever and cough", Symptoms{Fever: true, Cough: true}, RiskMedium},
		{"nausea and diarrhea", Symptoms{Nausea: true, Diarrhea: true}, RiskMedium},
		{"fever and sore throat", Symptoms{Fever: true, SoreThroat: true}, RiskMedium},
		{"headache only", Symptoms{Headache: true}, RiskLow},
		{"sore throat only", Symptoms{SoreThroat: true}, RiskLow},
		{"cough only", Symptoms{Cough: true}, RiskLow},
		{"weakness only", Symptoms{Weakness: true}, RiskLow},
		{"nothing flagged", Symptoms{}, RiskLow},
		{"fever alone", Symptoms{Fever: true}, RiskLow},
		{"nausea alone", Symptoms{Nausea: true}, RiskLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Assess(tc.symptoms)
			if got.RiskLevel != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got.RiskLevel)
			}
			if got.Recommendation == "" {
				t.Error("every assessment must carry a recommendation")
			}
		})
	}
}

func TestAssess_SevereComboBeatsMediumRules(t *testing.T) {
	// All three respiratory flags plus flu flags must stay high risk.
	got := Assess(Symptoms{Fever: true, Cough: true, DifficultyBreathing: true, Headache: true, BodyAches: true})
	if got.RiskLevel != RiskHigh {
		t.Errorf("expected high, got %s", got.RiskLevel)
	}
}

func TestRiskColor(t *testing.T) {
	cases := map[string]string{
		RiskLow:    "green",
		RiskMedium: "yellow",
		RiskHigh:   "red",
		"bogus":    "gray",
	}
	for level, want := range cases {
		if got := RiskColor(level); got != want {
			t.Errorf("RiskColor(%s): expected %s, got %s", level, want, got)
		}
	}
}

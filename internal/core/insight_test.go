package core

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dealscope/dealscope/pkg/models"
)

// testNow is the fixed evaluation time used across the engine tests.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) InsightEngine {
	t.Helper()
	lib, err := NewResourceLibrary(t.TempDir(), "")
	if err != nil {
		t.Fatalf("creating resource library: %v", err)
	}
	return NewInsightEngine(lib)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func testOpportunity() *models.Opportunity {
	return &models.Opportunity{
		ID:          "006A0000012345",
		Name:        "Acme Renewal",
		CloseDate:   testNow.AddDate(0, 1, 0),
		StageName:   models.StageQualification,
		Amount:      floatPtr(50000),
		Probability: intPtr(80),
		AccountID:   "001A0000098765",
	}
}

func testAccount() *models.Account {
	return &models.Account{
		ID:       "001A0000098765",
		Name:     "Acme Corp",
		Industry: strPtr("Technology"),
	}
}

func TestComputeInsight_LowProbabilityWinsOverOverdue(t *testing.T) {
	engine := newTestEngine(t)

	// Probability 40 and a past close date in a critical stage: rule 1
	// must win over rules 2 and 4.
	opp := testOpportunity()
	opp.Probability = intPtr(40)
	opp.StageName = models.StageNegotiationReview
	opp.CloseDate = testNow.AddDate(0, 0, -10)

	insight := engine.ComputeInsight(opp, testAccount(), testNow)

	if !strings.Contains(insight.RiskMessage, "low win probability") {
		t.Errorf("expected low win probability message, got %q", insight.RiskMessage)
	}
	if strings.Contains(insight.RiskMessage, "overdue") {
		t.Errorf("overdue message must not fire when probability < 50, got %q", insight.RiskMessage)
	}
	if !strings.Contains(insight.RecommendedAction, "strengthening the value proposition") {
		t.Errorf("unexpected action: %q", insight.RecommendedAction)
	}
}

func TestComputeInsight_OverdueBeforeNearingClose(t *testing.T) {
	engine := newTestEngine(t)

	// One day past close with healthy probability: rule 2 fires even
	// though the day count would also satisfy rule 3.
	opp := testOpportunity()
	opp.Probability = intPtr(80)
	opp.CloseDate = testNow.AddDate(0, 0, -1)

	insight := engine.ComputeInsight(opp, testAccount(), testNow)

	if insight.RiskMessage != "This opportunity is overdue. Follow up with the client immediately." {
		t.Errorf("expected overdue message, got %q", insight.RiskMessage)
	}
	if !strings.Contains(insight.RecommendedAction, "Contact the client") {
		t.Errorf("unexpected action: %q", insight.RecommendedAction)
	}
}

func TestComputeInsight_NearingCloseDate(t *testing.T) {
	engine := newTestEngine(t)

	opp := testOpportunity()
	opp.Probability = intPtr(80)
	opp.CloseDate = testNow.AddDate(0, 0, 5)

	insight := engine.ComputeInsight(opp, testAccount(), testNow)

	if !strings.Contains(insight.RiskMessage, "nearing its close date with 5 days remaining") {
		t.Errorf("expected nearing message with 5 days, got %q", insight.RiskMessage)
	}
	if insight.DaysRemaining != 5 {
		t.Errorf("expected 5 days remaining, got %d", insight.DaysRemaining)
	}
	if !strings.Contains(insight.RecommendedAction, "final meeting") {
		t.Errorf("unexpected action: %q", insight.RecommendedAction)
	}
}

func TestComputeInsight_CriticalStageModerateProbability(t *testing.T) {
	engine := newTestEngine(t)

	for _, stage := range []models.Stage{models.StageProposalPriceQuote, models.StageNegotiationReview} {
		opp := testOpportunity()
		opp.StageName = stage
		opp.Probability = intPtr(60)
		opp.CloseDate = testNow.AddDate(0, 0, 30)

		insight := engine.ComputeInsight(opp, testAccount(), testNow)

		if !strings.Contains(insight.RiskMessage, "critical stage") {
			t.Errorf("stage %s: expected critical stage message, got %q", stage, insight.RiskMessage)
		}
	}

	// The same probability outside a critical stage is on track.
	opp := testOpportunity()
	opp.StageName = models.StageProspecting
	opp.Probability = intPtr(60)
	opp.CloseDate = testNow.AddDate(0, 0, 30)

	insight := engine.ComputeInsight(opp, testAccount(), testNow)
	if !strings.Contains(insight.RiskMessage, "on track") {
		t.Errorf("expected on track message, got %q", insight.RiskMessage)
	}
}

func TestComputeInsight_OnTrack(t *testing.T) {
	engine := newTestEngine(t)

	opp := testOpportunity()
	opp.Probability = intPtr(90)
	opp.CloseDate = testNow.AddDate(0, 0, 30)

	insight := engine.ComputeInsight(opp, testAccount(), testNow)

	if insight.RiskMessage != "This opportunity is on track with 30 days remaining." {
		t.Errorf("unexpected message: %q", insight.RiskMessage)
	}
	if !strings.Contains(insight.RecommendedAction, "Maintain consistent communication") {
		t.Errorf("unexpected action: %q", insight.RecommendedAction)
	}
}

func TestComputeInsight_HighValueThresholdIsStrict(t *testing.T) {
	engine := newTestEngine(t)

	cases := []struct {
		name   string
		amount *float64
		want   bool
	}{
		{"at threshold", floatPtr(100000), false},
		{"above threshold", floatPtr(100001), true},
		{"absent", nil, false},
	}

	for _, tc := range cases {
		opp := testOpportunity()
		opp.Amount = tc.amount

		insight := engine.ComputeInsight(opp, testAccount(), testNow)

		if got := insight.HighValueNote != nil; got != tc.want {
			t.Errorf("%s: high value note present = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestComputeInsight_HighValueIndependentOfRisk(t *testing.T) {
	engine := newTestEngine(t)

	// High value and low probability at once: both the flag and rule 1.
	opp := testOpportunity()
	opp.Amount = floatPtr(500000)
	opp.Probability = intPtr(30)

	insight := engine.ComputeInsight(opp, testAccount(), testNow)

	if insight.HighValueNote == nil {
		t.Error("expected high value note")
	}
	if !strings.Contains(insight.RiskMessage, "low win probability") {
		t.Errorf("expected low probability message, got %q", insight.RiskMessage)
	}
}

func TestComputeInsight_NilProbabilitySkipsProbabilityRules(t *testing.T) {
	engine := newTestEngine(t)

	opp := testOpportunity()
	opp.Probability = nil
	opp.StageName = models.StageNegotiationReview
	opp.CloseDate = testNow.AddDate(0, 0, 30)

	insight := engine.ComputeInsight(opp, testAccount(), testNow)

	// Rules 1 and 4 need a probability; without one this deal is on track.
	if !strings.Contains(insight.RiskMessage, "on track") {
		t.Errorf("expected on track message, got %q", insight.RiskMessage)
	}
}

func TestComputeInsight_DaysRemainingTruncatesTowardZero(t *testing.T) {
	engine := newTestEngine(t)

	// 5 days and 18 hours ahead: truncation gives 5, not 6.
	opp := testOpportunity()
	opp.Probability = intPtr(90)
	opp.CloseDate = testNow.Add(5*24*time.Hour + 18*time.Hour)

	insight := engine.ComputeInsight(opp, testAccount(), testNow)
	if insight.DaysRemaining != 5 {
		t.Errorf("expected 5 days remaining, got %d", insight.DaysRemaining)
	}
}

func TestComputeInsight_ResourcesFollowAccountIndustry(t *testing.T) {
	engine := newTestEngine(t)

	insight := engine.ComputeInsight(testOpportunity(), testAccount(), testNow)

	if len(insight.Resources) != 1 {
		t.Fatalf("expected exactly one Technology resource, got %d", len(insight.Resources))
	}
	if insight.Resources[0].File != "Tech_Whitepaper.pdf" {
		t.Errorf("unexpected resource: %+v", insight.Resources[0])
	}

	unknown := testAccount()
	unknown.Industry = strPtr("Unknown Industry")
	insight = engine.ComputeInsight(testOpportunity(), unknown, testNow)
	if len(insight.Resources) != 0 {
		t.Errorf("expected no resources for unknown industry, got %d", len(insight.Resources))
	}

	none := testAccount()
	none.Industry = nil
	insight = engine.ComputeInsight(testOpportunity(), none, testNow)
	if len(insight.Resources) != 0 {
		t.Errorf("expected no resources for absent industry, got %d", len(insight.Resources))
	}
}

func TestComputeInsight_Idempotent(t *testing.T) {
	engine := newTestEngine(t)

	opp := testOpportunity()
	acc := testAccount()

	first := engine.ComputeInsight(opp, acc, testNow)
	second := engine.ComputeInsight(opp, acc, testNow)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different insights:\n%+v\n%+v", first, second)
	}
}

func TestComputeInsight_NilAccountStaysTotal(t *testing.T) {
	engine := newTestEngine(t)

	insight := engine.ComputeInsight(testOpportunity(), nil, testNow)

	if insight.NextStep == "" || insight.StageGuidance == "" {
		t.Error("expected guidance even without an account")
	}
	if len(insight.Resources) != 0 {
		t.Errorf("expected no resources without an account, got %d", len(insight.Resources))
	}
}

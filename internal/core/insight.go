package core

import (
	"fmt"
	"time"

	"github.com/dealscope/dealscope/pkg/models"
)

// highValueThreshold is the amount above which an opportunity gets the
// high-value note. The comparison is strict: exactly the threshold does not
// qualify.
const highValueThreshold = 100000

// highValueNote is shown in addition to the risk assessment for large deals.
const highValueNote = "This is a high-value opportunity. Consider prioritizing resources to maximize chances of success."

// InsightEngine derives guidance for an opportunity from its record bundle.
// Implementations must be pure: same inputs and the same evaluation time
// always produce the same Insight, with no I/O and no retained state.
type InsightEngine interface {
	ComputeInsight(opp *models.Opportunity, account *models.Account, now time.Time) models.Insight
}

// insightEngine is the stateless engine implementation. Its only dependency
// is the resource catalog, which is itself immutable after load.
type insightEngine struct {
	library ResourceLibrary
}

// NewInsightEngine creates an InsightEngine that resolves recommended
// reading through the given resource library.
func NewInsightEngine(library ResourceLibrary) InsightEngine {
	return &insightEngine{library: library}
}

// ComputeInsight evaluates the guidance rules for one opportunity. It never
// fails: absent optional fields degrade to generic guidance. The caller
// supplies the evaluation time so the close-date rules stay deterministic
// under test.
func (e *insightEngine) ComputeInsight(opp *models.Opportunity, account *models.Account, now time.Time) models.Insight {
	days := daysUntilClose(opp.CloseDate, now)

	risk, action := assessRisk(opp, now, days)

	insight := models.Insight{
		NextStep:          NextStepFor(opp.StageName),
		RiskMessage:       risk,
		RecommendedAction: action,
		StageGuidance:     StageGuidanceFor(opp.StageName),
		DaysRemaining:     days,
	}

	if opp.Amount != nil && *opp.Amount > highValueThreshold {
		note := highValueNote
		insight.HighValueNote = &note
	}

	if account != nil && account.Industry != nil {
		insight.Resources = e.library.Lookup(*account.Industry)
	}

	return insight
}

// daysUntilClose returns the whole days between now and the close date,
// truncated toward zero. Negative for past close dates.
func daysUntilClose(closeDate time.Time, now time.Time) int {
	if closeDate.IsZero() {
		return 0
	}
	return int(closeDate.Sub(now).Hours() / 24)
}

// assessRisk walks the risk decision list in priority order and returns the
// first matching rule's message and recommended action. The ordering is a
// strict precedence chain: a low-probability overdue deal reports low
// probability, never overdue.
func assessRisk(opp *models.Opportunity, now time.Time, days int) (string, string) {
	hasClose := !opp.CloseDate.IsZero()
	critical := opp.StageName == models.StageProposalPriceQuote || opp.StageName == models.StageNegotiationReview

	switch {
	case opp.Probability != nil && *opp.Probability < 50:
		return fmt.Sprintf("This opportunity has a low win probability. %d days remain until the close date. Consider re-engaging the client or revising the proposal.", days),
			"Focus on strengthening the value proposition and addressing client objections."

	case hasClose && opp.CloseDate.Before(now):
		return "This opportunity is overdue. Follow up with the client immediately.",
			"Contact the client to understand any blockers and discuss the next steps."

	case hasClose && days <= 7:
		return fmt.Sprintf("This opportunity is nearing its close date with %d days remaining. Ensure all client concerns are addressed promptly.", days),
			"Schedule a final meeting with the client to confirm alignment."

	case critical && opp.Probability != nil && *opp.Probability < 70:
		return fmt.Sprintf("This opportunity is in a critical stage with %d days remaining and moderate win probability. Review terms and address objections.", days),
			"Conduct a detailed review of the proposal or contract terms and ensure client satisfaction."

	case !hasClose:
		return "This opportunity is on track.",
			"Maintain consistent communication and monitor progress closely."

	default:
		return fmt.Sprintf("This opportunity is on track with %d days remaining.", days),
			"Maintain consistent communication and monitor progress closely."
	}
}

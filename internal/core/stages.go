package core

import "github.com/dealscope/dealscope/pkg/models"

// Default texts for stages outside the known pipeline enumeration.
const (
	defaultNextStep      = "Follow up with the client and provide any requested information."
	defaultStageGuidance = "Continue to progress the deal."
)

// nextSteps maps each pipeline stage to a short advisory on what to do next.
var nextSteps = map[models.Stage]string{
	models.StageClosedWon:          "Celebrate the win and ensure smooth implementation or delivery for the client. Gather testimonials or case studies if applicable.",
	models.StagePerceptionAnalysis: "Engage the client with proof points such as case studies or ROI analyses to build confidence.",
	models.StageNegotiationReview:  "Focus on addressing any legal or procurement concerns. Align with key decision-makers to finalize terms.",
	models.StageIdDecisionMakers:   "Identify all stakeholders involved in the decision-making process and establish a clear buying timeline.",
	models.StageQualification:      "Verify the client's budget, timeline, and decision-making process to ensure alignment with your solution.",
	models.StageValueProposition:   "Highlight your unique selling points and how they directly address the client's specific needs.",
	models.StageProspecting:        "Research the client's business challenges and identify initial points of contact to establish rapport.",
	models.StageNeedsAnalysis:      "Conduct detailed discovery sessions to fully understand the client's pain points and tailor your solution.",
	models.StageProposalPriceQuote: "Present a well-structured proposal with clear pricing. Emphasize value over cost to address potential objections.",
}

// stageGuidance maps each pipeline stage to longer-form advisory text shown
// alongside the next step.
var stageGuidance = map[models.Stage]string{
	models.StageClosedWon:          "Focus on delivering exceptional results to ensure client satisfaction and secure potential future business or referrals.",
	models.StagePerceptionAnalysis: "Provide the client with success stories, testimonials, or ROI analyses to reinforce your value proposition.",
	models.StageNegotiationReview:  "Address all objections and ensure alignment with decision-makers to finalize the deal terms.",
	models.StageIdDecisionMakers:   "Ensure you have identified and engaged all key stakeholders in the decision-making process.",
	models.StageQualification:      "Validate the client's budget, timeline, and decision-making authority to move forward effectively.",
	models.StageValueProposition:   "Clearly articulate how your solution uniquely meets the client's specific needs and challenges.",
	models.StageProspecting:        "Research the client's business environment and challenges to establish meaningful initial engagement.",
	models.StageNeedsAnalysis:      "Conduct comprehensive discovery sessions to understand the client's pain points and goals fully.",
	models.StageProposalPriceQuote: "Craft a compelling proposal that highlights value over cost and addresses potential objections proactively.",
}

// NextStepFor returns the advisory next step for a stage, falling back to a
// generic follow-up message for stages outside the known enumeration.
func NextStepFor(stage models.Stage) string {
	if step, ok := nextSteps[stage]; ok {
		return step
	}
	return defaultNextStep
}

// StageGuidanceFor returns the longer-form guidance for a stage, with a
// generic default for unknown stages.
func StageGuidanceFor(stage models.Stage) string {
	if g, ok := stageGuidance[stage]; ok {
		return g
	}
	return defaultStageGuidance
}

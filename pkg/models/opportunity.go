// Package models defines the record and insight types shared across the
// DealScope system: CRM records fetched from Salesforce and the derived
// Insight the engine produces from them.
package models

import "time"

// Stage is a named phase of the sales pipeline.
type Stage string

const (
	StageProspecting        Stage = "Prospecting"
	StageQualification      Stage = "Qualification"
	StageNeedsAnalysis      Stage = "Needs Analysis"
	StageValueProposition   Stage = "Value Proposition"
	StageIdDecisionMakers   Stage = "Id. Decision Makers"
	StagePerceptionAnalysis Stage = "Perception Analysis"
	StageProposalPriceQuote Stage = "Proposal/Price Quote"
	StageNegotiationReview  Stage = "Negotiation/Review"
	StageClosedWon          Stage = "Closed Won"
)

// KnownStages lists the pipeline stages the guidance tables cover, in
// pipeline order. Records may carry other stage names; those fall back to
// default guidance.
var KnownStages = []Stage{
	StageProspecting,
	StageQualification,
	StageNeedsAnalysis,
	StageValueProposition,
	StageIdDecisionMakers,
	StagePerceptionAnalysis,
	StageProposalPriceQuote,
	StageNegotiationReview,
	StageClosedWon,
}

// Opportunity is a sales deal record. Amount, Probability, Segment and
// Region are optional in the source and nil when absent.
type Opportunity struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CloseDate   time.Time `json:"close_date"`
	StageName   Stage     `json:"stage_name"`
	Amount      *float64  `json:"amount,omitempty"`
	Probability *int      `json:"probability,omitempty"`
	Segment     *string   `json:"segment,omitempty"`
	Region      *string   `json:"region,omitempty"`
	AccountID   string    `json:"account_id"`
}

// Account is the customer record an opportunity belongs to.
type Account struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	AccountNumber    *string `json:"account_number,omitempty"`
	Industry         *string `json:"industry,omitempty"`
	CustomerPriority *string `json:"customer_priority,omitempty"`
	Type             *string `json:"type,omitempty"`
	Rating           *string `json:"rating,omitempty"`
}

// Contact is a person attached to an account.
type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Title string `json:"title"`
}

// Bundle is the full set of records fetched for one opportunity view.
// RecentActivity is nil when the opportunity has no tasks or events.
type Bundle struct {
	Opportunity    *Opportunity  `json:"opportunity"`
	Account        *Account      `json:"account"`
	Contacts       []Contact     `json:"contacts"`
	RecentActivity *Activity     `json:"recent_activity,omitempty"`
	Siblings       []Opportunity `json:"siblings"`
}

// PrimaryContact returns the contact used as the default point of contact:
// the first one in source order. The source guarantees no ordering, so this
// mirrors whatever the backend returned first.
func (b *Bundle) PrimaryContact() *Contact {
	if len(b.Contacts) == 0 {
		return nil
	}
	return &b.Contacts[0]
}

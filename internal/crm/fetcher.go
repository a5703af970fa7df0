package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dealscope/dealscope/pkg/models"
)

// RecordFetcher is the read-only query surface the rest of the system
// consumes. Every call may fail as a whole; no partial results are returned.
type RecordFetcher interface {
	ListOpportunities(ctx context.Context, limit int) ([]models.Opportunity, error)
	FetchOpportunitySummary(ctx context.Context, id string) (*models.Opportunity, error)
	FetchAccount(ctx context.Context, id string) (*models.Account, error)
	FetchContacts(ctx context.Context, accountID string) ([]models.Contact, error)
	FetchRecentActivity(ctx context.Context, opportunityID string) (*models.Activity, error)
	FetchSiblingOpportunities(ctx context.Context, accountID string, excludeID string) ([]models.Opportunity, error)
}

// salesforceFetcher implements RecordFetcher over the REST client.
type salesforceFetcher struct {
	client *Client
}

// NewRecordFetcher creates a RecordFetcher backed by a logged-in client.
func NewRecordFetcher(client *Client) RecordFetcher {
	return &salesforceFetcher{client: client}
}

// Wire row types mirror the Salesforce field names. Dates arrive as strings
// and are parsed during conversion.

type opportunityRow struct {
	ID          string   `json:"Id"`
	Name        string   `json:"Name"`
	CloseDate   string   `json:"CloseDate"`
	StageName   string   `json:"StageName"`
	Amount      *float64 `json:"Amount"`
	Probability *float64 `json:"Probability"`
	Segment     *string  `json:"Segment__c"`
	Region      *string  `json:"Region__c"`
	AccountID   string   `json:"AccountId"`
}

type accountRow struct {
	ID               string  `json:"Id"`
	Name             string  `json:"Name"`
	AccountNumber    *string `json:"AccountNumber"`
	Industry         *string `json:"Industry"`
	CustomerPriority *string `json:"CustomerPriority__c"`
	Type             *string `json:"Type"`
	Rating           *string `json:"Rating"`
}

type contactRow struct {
	ID    string `json:"Id"`
	Name  string `json:"Name"`
	Email string `json:"Email"`
	Phone string `json:"Phone"`
	Title string `json:"Title"`
}

type activityRow struct {
	Subject      string  `json:"Subject"`
	Status       *string `json:"Status"`
	ActivityDate string  `json:"ActivityDate"`
	Description  string  `json:"Description"`
	CreatedDate  string  `json:"CreatedDate"`
}

// ListOpportunities returns up to limit opportunities in source order.
func (f *salesforceFetcher) ListOpportunities(ctx context.Context, limit int) ([]models.Opportunity, error) {
	soql := fmt.Sprintf(
		"SELECT Id, Name, CloseDate, StageName, Amount, Segment__c, Region__c, AccountId, Probability FROM Opportunity LIMIT %d",
		limit)

	records, err := f.client.Query(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("listing opportunities: %w", err)
	}
	return decodeOpportunities(records)
}

// FetchOpportunitySummary retrieves one opportunity by ID.
func (f *salesforceFetcher) FetchOpportunitySummary(ctx context.Context, id string) (*models.Opportunity, error) {
	var row opportunityRow
	if err := f.client.Retrieve(ctx, "Opportunity", id, &row); err != nil {
		return nil, fmt.Errorf("fetching opportunity %s: %w", id, err)
	}
	opp, err := row.toModel()
	if err != nil {
		return nil, fmt.Errorf("fetching opportunity %s: %w", id, err)
	}
	return opp, nil
}

// FetchAccount retrieves one account by ID.
func (f *salesforceFetcher) FetchAccount(ctx context.Context, id string) (*models.Account, error) {
	var row accountRow
	if err := f.client.Retrieve(ctx, "Account", id, &row); err != nil {
		return nil, fmt.Errorf("fetching account %s: %w", id, err)
	}
	return &models.Account{
		ID:               row.ID,
		Name:             row.Name,
		AccountNumber:    row.AccountNumber,
		Industry:         row.Industry,
		CustomerPriority: row.CustomerPriority,
		Type:             row.Type,
		Rating:           row.Rating,
	}, nil
}

// FetchContacts returns the account's contacts in whatever order the source
// returns them. No ordering is imposed here: the first contact in source
// order is the documented default elsewhere.
func (f *salesforceFetcher) FetchContacts(ctx context.Context, accountID string) ([]models.Contact, error) {
	soql := fmt.Sprintf(
		"SELECT Id, Name, Email, Phone, Title FROM Contact WHERE AccountId = '%s'",
		soqlEscape(accountID))

	records, err := f.client.Query(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("fetching contacts for account %s: %w", accountID, err)
	}

	contacts := make([]models.Contact, 0, len(records))
	for _, raw := range records {
		var row contactRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decoding contact: %w", err)
		}
		contacts = append(contacts, models.Contact{
			ID:    row.ID,
			Name:  row.Name,
			Email: row.Email,
			Phone: row.Phone,
			Title: row.Title,
		})
	}
	return contacts, nil
}

// FetchRecentActivity returns the most recent task or event for the
// opportunity, or nil when there is none. Tasks and events are queried
// separately, merged tasks-first, then stable-sorted by activity date
// descending. On a date tie the task wins because it entered the combined
// list first.
func (f *salesforceFetcher) FetchRecentActivity(ctx context.Context, opportunityID string) (*models.Activity, error) {
	esc := soqlEscape(opportunityID)

	taskSOQL := fmt.Sprintf(
		"SELECT Subject, Status, ActivityDate, Description, CreatedDate FROM Task WHERE WhatId = '%s' ORDER BY ActivityDate DESC LIMIT 1", esc)
	eventSOQL := fmt.Sprintf(
		"SELECT Subject, ActivityDate, Description, CreatedDate FROM Event WHERE WhatId = '%s' ORDER BY ActivityDate DESC LIMIT 1", esc)

	taskRecords, err := f.client.Query(ctx, taskSOQL)
	if err != nil {
		return nil, fmt.Errorf("fetching tasks for opportunity %s: %w", opportunityID, err)
	}
	eventRecords, err := f.client.Query(ctx, eventSOQL)
	if err != nil {
		return nil, fmt.Errorf("fetching events for opportunity %s: %w", opportunityID, err)
	}

	var activities []models.Activity
	for _, raw := range taskRecords {
		act, err := decodeActivity(raw, models.ActivityTask)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *act)
	}
	for _, raw := range eventRecords {
		act, err := decodeActivity(raw, models.ActivityEvent)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *act)
	}

	if len(activities) == 0 {
		return nil, nil
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].ActivityDate.After(activities[j].ActivityDate)
	})
	return &activities[0], nil
}

// FetchSiblingOpportunities returns the account's other opportunities.
func (f *salesforceFetcher) FetchSiblingOpportunities(ctx context.Context, accountID string, excludeID string) ([]models.Opportunity, error) {
	soql := fmt.Sprintf(
		"SELECT Id, Name, CloseDate, StageName, Amount, Segment__c, Region__c, AccountId, Probability FROM Opportunity WHERE AccountId = '%s' AND Id != '%s'",
		soqlEscape(accountID), soqlEscape(excludeID))

	records, err := f.client.Query(ctx, soql)
	if err != nil {
		return nil, fmt.Errorf("fetching sibling opportunities for account %s: %w", accountID, err)
	}
	return decodeOpportunities(records)
}

// FetchBundle runs the full fetch sequence for one opportunity: summary,
// account, contacts, recent activity, siblings. The first failure aborts
// the whole fetch.
func FetchBundle(ctx context.Context, f RecordFetcher, opportunityID string) (*models.Bundle, error) {
	opp, err := f.FetchOpportunitySummary(ctx, opportunityID)
	if err != nil {
		return nil, err
	}

	account, err := f.FetchAccount(ctx, opp.AccountID)
	if err != nil {
		return nil, err
	}

	contacts, err := f.FetchContacts(ctx, opp.AccountID)
	if err != nil {
		return nil, err
	}

	activity, err := f.FetchRecentActivity(ctx, opp.ID)
	if err != nil {
		return nil, err
	}

	siblings, err := f.FetchSiblingOpportunities(ctx, opp.AccountID, opp.ID)
	if err != nil {
		return nil, err
	}

	return &models.Bundle{
		Opportunity:    opp,
		Account:        account,
		Contacts:       contacts,
		RecentActivity: activity,
		Siblings:       siblings,
	}, nil
}

// --- Conversions ---

func decodeOpportunities(records []json.RawMessage) ([]models.Opportunity, error) {
	opps := make([]models.Opportunity, 0, len(records))
	for _, raw := range records {
		var row opportunityRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decoding opportunity: %w", err)
		}
		opp, err := row.toModel()
		if err != nil {
			return nil, err
		}
		opps = append(opps, *opp)
	}
	return opps, nil
}

func (r opportunityRow) toModel() (*models.Opportunity, error) {
	closeDate, err := parseDate(r.CloseDate)
	if err != nil {
		return nil, fmt.Errorf("opportunity %s close date: %w", r.ID, err)
	}

	opp := &models.Opportunity{
		ID:        r.ID,
		Name:      r.Name,
		CloseDate: closeDate,
		StageName: models.Stage(r.StageName),
		Amount:    r.Amount,
		Segment:   r.Segment,
		Region:    r.Region,
		AccountID: r.AccountID,
	}
	if r.Probability != nil {
		p := int(*r.Probability)
		opp.Probability = &p
	}
	return opp, nil
}

func decodeActivity(raw json.RawMessage, kind models.ActivityKind) (*models.Activity, error) {
	var row activityRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", kind, err)
	}

	activityDate, err := parseDate(row.ActivityDate)
	if err != nil {
		return nil, fmt.Errorf("%s activity date: %w", kind, err)
	}
	createdDate, err := parseDateTime(row.CreatedDate)
	if err != nil {
		return nil, fmt.Errorf("%s created date: %w", kind, err)
	}

	act := &models.Activity{
		Kind:         kind,
		Subject:      row.Subject,
		ActivityDate: activityDate,
		Description:  row.Description,
		CreatedDate:  createdDate,
	}
	if kind == models.ActivityTask {
		act.Status = row.Status
	}
	return act, nil
}

// parseDate parses a Salesforce date field. Empty values parse to the zero
// time rather than failing: date fields can be unset on activities.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// parseDateTime parses a Salesforce datetime field, trying the API's offset
// format first and RFC 3339 second.
func parseDateTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.000-0700", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing datetime %q", s)
}

// soqlEscape escapes a string literal for inclusion in a SOQL quoted value.
func soqlEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

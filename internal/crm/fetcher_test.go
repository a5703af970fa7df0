package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dealscope/dealscope/pkg/models"
)

// queryServer routes query and retrieve calls to canned JSON responses.
// Query responses are matched by a substring of the SOQL.
type queryServer struct {
	queries   map[string]string
	retrieves map[string]string
}

func (qs *queryServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/query") {
			soql := r.URL.Query().Get("q")
			for substr, resp := range qs.queries {
				if strings.Contains(soql, substr) {
					fmt.Fprintf(w, `{"totalSize":0,"done":true,"records":%s}`, resp)
					return
				}
			}
			t.Errorf("unmatched SOQL: %s", soql)
			w.Write([]byte(`{"records":[]}`))
			return
		}
		for suffix, resp := range qs.retrieves {
			if strings.HasSuffix(r.URL.Path, suffix) {
				w.Write([]byte(resp))
				return
			}
		}
		t.Errorf("unmatched path: %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestFetcher(t *testing.T, qs *queryServer) (RecordFetcher, func()) {
	t.Helper()
	srv := httptest.NewServer(qs.handler(t))
	return NewRecordFetcher(loggedInClient(srv)), srv.Close
}

const oppJSON = `{"Id":"006A","Name":"Acme Renewal","CloseDate":"2025-07-15","StageName":"Qualification","Amount":120000.0,"Probability":75.0,"Segment__c":"Enterprise","Region__c":null,"AccountId":"001A"}`

func TestListOpportunities_DecodesRecords(t *testing.T) {
	fetcher, done := newTestFetcher(t, &queryServer{
		queries: map[string]string{
			"FROM Opportunity LIMIT 50": "[" + oppJSON + "]",
		},
	})
	defer done()

	opps, err := fetcher.ListOpportunities(context.Background(), 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}

	opp := opps[0]
	if opp.ID != "006A" || opp.Name != "Acme Renewal" {
		t.Errorf("unexpected record: %+v", opp)
	}
	if opp.StageName != models.StageQualification {
		t.Errorf("unexpected stage: %s", opp.StageName)
	}
	if opp.CloseDate.Format("2006-01-02") != "2025-07-15" {
		t.Errorf("unexpected close date: %v", opp.CloseDate)
	}
	if opp.Amount == nil || *opp.Amount != 120000 {
		t.Errorf("unexpected amount: %v", opp.Amount)
	}
	if opp.Probability == nil || *opp.Probability != 75 {
		t.Errorf("unexpected probability: %v", opp.Probability)
	}
	if opp.Segment == nil || *opp.Segment != "Enterprise" {
		t.Errorf("unexpected segment: %v", opp.Segment)
	}
	if opp.Region != nil {
		t.Errorf("expected nil region, got %v", *opp.Region)
	}
}

func TestListOpportunities_QueryFailurePropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetcher := NewRecordFetcher(loggedInClient(srv))
	if _, err := fetcher.ListOpportunities(context.Background(), 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestFetchContacts_PreservesSourceOrder(t *testing.T) {
	fetcher, done := newTestFetcher(t, &queryServer{
		queries: map[string]string{
			"FROM Contact": `[
				{"Id":"003B","Name":"Beth","Email":"beth@acme.com","Phone":"555-2","Title":"CFO"},
				{"Id":"003A","Name":"Al","Email":"al@acme.com","Phone":"555-1","Title":"CTO"}
			]`,
		},
	})
	defer done()

	contacts, err := fetcher.FetchContacts(context.Background(), "001A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}
	// Source order is preserved; the first contact is the default.
	if contacts[0].Name != "Beth" || contacts[1].Name != "Al" {
		t.Errorf("contacts reordered: %+v", contacts)
	}
}

func TestFetchRecentActivity_PicksLatestAcrossKinds(t *testing.T) {
	fetcher, done := newTestFetcher(t, &queryServer{
		queries: map[string]string{
			"FROM Task":  `[{"Subject":"Call","Status":"Completed","ActivityDate":"2025-06-01","Description":"call notes","CreatedDate":"2025-05-20T10:00:00.000+0000"}]`,
			"FROM Event": `[{"Subject":"Demo","ActivityDate":"2025-06-10","Description":"demo notes","CreatedDate":"2025-05-25T10:00:00.000+0000"}]`,
		},
	})
	defer done()

	act, err := fetcher.FetchRecentActivity(context.Background(), "006A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if act == nil {
		t.Fatal("expected an activity")
	}
	if act.Kind != models.ActivityEvent || act.Subject != "Demo" {
		t.Errorf("expected the later event to win, got %+v", act)
	}
	if act.Status != nil {
		t.Errorf("events must carry no status, got %v", *act.Status)
	}
}

func TestFetchRecentActivity_TaskWinsDateTie(t *testing.T) {
	fetcher, done := newTestFetcher(t, &queryServer{
		queries: map[string]string{
			"FROM Task":  `[{"Subject":"Call","Status":"Open","ActivityDate":"2025-06-10","Description":"","CreatedDate":"2025-05-20T10:00:00.000+0000"}]`,
			"FROM Event": `[{"Subject":"Demo","ActivityDate":"2025-06-10","Description":"","CreatedDate":"2025-05-25T10:00:00.000+0000"}]`,
		},
	})
	defer done()

	act, err := fetcher.FetchRecentActivity(context.Background(), "006A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Stable sort: on a tied date the task entered the combined list first.
	if act.Kind != models.ActivityTask || act.Subject != "Call" {
		t.Errorf("expected the task to win the tie, got %+v", act)
	}
	if act.Status == nil || *act.Status != "Open" {
		t.Errorf("task status lost: %+v", act)
	}
}

func TestFetchRecentActivity_NoActivities(t *testing.T) {
	fetcher, done := newTestFetcher(t, &queryServer{
		queries: map[string]string{
			"FROM Task":  `[]`,
			"FROM Event": `[]`,
		},
	})
	defer done()

	act, err := fetcher.FetchRecentActivity(context.Background(), "006A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if act != nil {
		t.Errorf("expected nil activity, got %+v", act)
	}
}

func TestFetchBundle_AssemblesAllRecords(t *testing.T) {
	fetcher, done := newTestFetcher(t, &queryServer{
		queries: map[string]string{
			"FROM Contact":                     `[{"Id":"003A","Name":"Al","Email":"al@acme.com","Phone":"555-1","Title":"CTO"}]`,
			"FROM Task":                        `[]`,
			"FROM Event":                       `[]`,
			"FROM Opportunity WHERE AccountId": `[{"Id":"006B","Name":"Acme Expansion","CloseDate":"2025-09-01","StageName":"Prospecting","Amount":null,"Probability":null,"AccountId":"001A"}]`,
		},
		retrieves: map[string]string{
			"/sobjects/Opportunity/006A": oppJSON,
			"/sobjects/Account/001A":     `{"Id":"001A","Name":"Acme Corp","AccountNumber":"CD-1234","Industry":"Technology","CustomerPriority__c":"High","Type":"Customer - Direct","Rating":"Hot"}`,
		},
	})
	defer done()

	bundle, err := FetchBundle(context.Background(), fetcher, "006A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bundle.Opportunity.ID != "006A" {
		t.Errorf("unexpected opportunity: %+v", bundle.Opportunity)
	}
	if bundle.Account.Name != "Acme Corp" {
		t.Errorf("unexpected account: %+v", bundle.Account)
	}
	if c := bundle.PrimaryContact(); c == nil || c.Name != "Al" {
		t.Errorf("unexpected primary contact: %+v", c)
	}
	if bundle.RecentActivity != nil {
		t.Errorf("expected no activity, got %+v", bundle.RecentActivity)
	}
	if len(bundle.Siblings) != 1 || bundle.Siblings[0].ID != "006B" {
		t.Errorf("unexpected siblings: %+v", bundle.Siblings)
	}
	if bundle.Siblings[0].Amount != nil {
		t.Errorf("expected nil sibling amount, got %v", *bundle.Siblings[0].Amount)
	}
}

func TestFetchBundle_AbortsOnFirstFailure(t *testing.T) {
	// The opportunity retrieve fails; nothing else should be attempted.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/sobjects/Opportunity/") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		t.Errorf("unexpected call after failure: %s", r.URL.Path)
	}))
	defer srv.Close()

	fetcher := NewRecordFetcher(loggedInClient(srv))
	if _, err := FetchBundle(context.Background(), fetcher, "006A"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSoqlEscape(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"006A", "006A"},
		{"O'Brien", `O\'Brien`},
		{`a\b`, `a\\b`},
	}
	for _, tc := range cases {
		if got := soqlEscape(tc.in); got != tc.want {
			t.Errorf("soqlEscape(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

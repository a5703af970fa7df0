package cli

import (
	"fmt"

	"github.com/dealscope/dealscope/internal/core"
	"github.com/dealscope/dealscope/internal/crm"
	"github.com/dealscope/dealscope/internal/observability"
	"github.com/dealscope/dealscope/pkg/models"
)

// Service instances, set during app initialization in app.go. Fetcher stays
// nil when the record source is unavailable; ConnectErr then carries the
// reason shown to the user.
var (
	Config     *models.AppConfig
	Fetcher    crm.RecordFetcher
	Engine     core.InsightEngine
	Library    core.ResourceLibrary
	EventLog   observability.EventLog
	ConnectErr error
)

// requireFetcher guards data commands when the record source is down.
func requireFetcher() error {
	if Fetcher == nil {
		if ConnectErr != nil {
			return fmt.Errorf("record source unavailable: %v (check your credentials in .dealscope.yaml)", ConnectErr)
		}
		return fmt.Errorf("record source not configured: set salesforce credentials in .dealscope.yaml or DEALSCOPE_SALESFORCE_* environment variables")
	}
	return nil
}

// logEvent writes an event when the event log is enabled; failures to log
// never affect the command outcome.
func logEvent(level, eventType, message string, data map[string]any) {
	if EventLog == nil {
		return
	}
	_ = EventLog.Write(observability.NewEvent(level, eventType, message, data))
}

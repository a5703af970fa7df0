// Package observability provides the structured event log for DealScope.
// Record-source calls, insight computations, and resource downloads are
// appended as JSON Lines (JSONL) so a session can be audited after the fact.
package observability

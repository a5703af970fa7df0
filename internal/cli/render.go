package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dealscope/dealscope/pkg/models"
)

// notAvailable is the default shown for absent optional fields.
const notAvailable = "N/A"

var (
	sectionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62")).
				MarginTop(1)

	fieldLabelStyle = lipgloss.NewStyle().Bold(true)
)

// strOrNA renders an optional string field.
func strOrNA(s *string) string {
	if s == nil || *s == "" {
		return notAvailable
	}
	return *s
}

// formatAmount renders a currency amount with thousands separators, or N/A.
func formatAmount(amount *float64) string {
	if amount == nil {
		return notAvailable
	}
	return "$" + groupThousands(int64(*amount))
}

// groupThousands inserts commas into the decimal rendering of n.
func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// formatProbability renders an optional probability percentage.
func formatProbability(p *int) string {
	if p == nil {
		return notAvailable
	}
	return fmt.Sprintf("%d%%", *p)
}

// formatDate renders a calendar date, or N/A for the zero time.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return notAvailable
	}
	return t.Format("2006-01-02")
}

// field renders a single "Label: value" line.
func field(label, value string) string {
	return fmt.Sprintf("  %s %s", fieldLabelStyle.Render(label+":"), value)
}

// renderBundle produces the full detail view for an opportunity: record
// fields, account, primary contact, recent activity, sibling opportunities,
// and the computed insight.
func renderBundle(b *models.Bundle, insight models.Insight) string {
	var out []string

	opp := b.Opportunity
	out = append(out,
		sectionTitleStyle.Render("Opportunity Details"),
		field("Name", opp.Name),
		field("Close Date", formatDate(opp.CloseDate)),
		field("Stage", string(opp.StageName)),
		field("Amount", formatAmount(opp.Amount)),
		field("Probability", formatProbability(opp.Probability)),
		field("Segment", strOrNA(opp.Segment)),
		field("Region", strOrNA(opp.Region)),
	)

	acc := b.Account
	out = append(out,
		sectionTitleStyle.Render("Account Details"),
		field("Name", acc.Name),
		field("Account Number", strOrNA(acc.AccountNumber)),
		field("Industry", strOrNA(acc.Industry)),
		field("Customer Priority", strOrNA(acc.CustomerPriority)),
		field("Type", strOrNA(acc.Type)),
		field("Rating", strOrNA(acc.Rating)),
	)

	out = append(out, sectionTitleStyle.Render("Primary Contact"))
	if c := b.PrimaryContact(); c != nil {
		out = append(out,
			field("Name", c.Name),
			field("Title", orNA(c.Title)),
			field("Email", orNA(c.Email)),
			field("Phone", orNA(c.Phone)),
		)
	} else {
		out = append(out, "  No contacts found for this account.")
	}

	out = append(out, sectionTitleStyle.Render("Recent Activity"))
	if a := b.RecentActivity; a != nil {
		out = append(out,
			field("Subject", orNA(a.Subject)),
			field("Status", strOrNA(a.Status)), // events have no status
			field("Date", formatDate(a.ActivityDate)),
			field("Description", orNA(a.Description)),
		)
	} else {
		out = append(out, "  No recent activities found for this opportunity.")
	}

	out = append(out, sectionTitleStyle.Render(fmt.Sprintf("Other Opportunities for %s", acc.Name)))
	if len(b.Siblings) == 0 {
		out = append(out, "  No other opportunities for this account.")
	} else {
		out = append(out, fmt.Sprintf("  %-30s %-12s %-22s %s", "Name", "Close Date", "Stage", "Amount"))
		for _, s := range b.Siblings {
			out = append(out, fmt.Sprintf("  %-30s %-12s %-22s %s",
				truncate(s.Name, 30), formatDate(s.CloseDate), s.StageName, formatAmount(s.Amount)))
		}
	}

	out = append(out, renderInsight(opp, b.PrimaryContact(), insight))

	return strings.Join(out, "\n")
}

// renderInsight produces the deal accelerator section from a computed
// insight.
func renderInsight(opp *models.Opportunity, contact *models.Contact, insight models.Insight) string {
	var out []string

	out = append(out, sectionTitleStyle.Render("Deal Accelerator"))
	out = append(out, fmt.Sprintf("  For %s, the current win probability is %s.",
		opp.Name, formatProbability(opp.Probability)))
	if contact != nil {
		out = append(out, fmt.Sprintf("  To increase the chances of winning the deal, contact %s (%s), %s, %s.",
			contact.Name, orNA(contact.Title), orNA(contact.Email), orNA(contact.Phone)))
	}

	out = append(out,
		field("Next Step", insight.NextStep),
		field("Risk Analysis", insight.RiskMessage),
		field("Recommended Action", insight.RecommendedAction),
	)
	if insight.HighValueNote != nil {
		out = append(out, field("Additional Insight", *insight.HighValueNote))
	}
	out = append(out, field(fmt.Sprintf("Guidance for %s Stage", opp.StageName), insight.StageGuidance))

	if len(insight.Resources) == 0 {
		out = append(out, field("Recommended Resources", "No resources available for this industry."))
	} else {
		out = append(out, field("Recommended Resources", ""))
		for _, r := range insight.Resources {
			out = append(out, fmt.Sprintf("    - %s (%s)", r.Title, r.File))
		}
	}

	return strings.Join(out, "\n")
}

// orNA substitutes N/A for empty plain strings.
func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// truncate shortens a string for table columns.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

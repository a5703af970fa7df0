package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dealscope/dealscope/internal/crm"
	"github.com/dealscope/dealscope/internal/observability"
	"github.com/dealscope/dealscope/pkg/models"
	"github.com/spf13/cobra"
)

// Detail panel indices.
const (
	panelDetails = iota
	panelAccount
	panelInsight
	panelCount
)

// Dashboard modes: picking an opportunity or viewing one.
const (
	modePicker = iota
	modeDetail
)

type dashboardModel struct {
	mode        int
	activePanel int
	width       int
	height      int

	// Picker state.
	opportunities []models.Opportunity
	cursor        int

	// Detail state.
	bundle  *models.Bundle
	insight models.Insight

	// State.
	loading bool
	err     error
}

// opportunitiesLoadedMsg carries the picker list back to the model.
type opportunitiesLoadedMsg struct {
	opportunities []models.Opportunity
	err           error
}

// bundleLoadedMsg carries one opportunity's records and insight back to the
// model.
type bundleLoadedMsg struct {
	bundle  *models.Bundle
	insight models.Insight
	err     error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Bold(true)

	riskLowProb  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	riskOverdue  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	riskNearing  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	riskCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	riskOnTrack  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		mode:    modePicker,
		loading: true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadOpportunities
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.mode == modeDetail {
				m.mode = modePicker
				m.bundle = nil
				m.err = nil
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.mode == modePicker && m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.mode == modePicker && m.cursor < len(m.opportunities)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			if m.mode == modePicker && len(m.opportunities) > 0 {
				m.loading = true
				id := m.opportunities[m.cursor].ID
				return m, loadBundle(id)
			}
			return m, nil
		case "tab":
			if m.mode == modeDetail {
				m.activePanel = (m.activePanel + 1) % panelCount
			}
			return m, nil
		case "shift+tab":
			if m.mode == modeDetail {
				m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			}
			return m, nil
		case "r":
			m.loading = true
			if m.mode == modeDetail && m.bundle != nil {
				return m, loadBundle(m.bundle.Opportunity.ID)
			}
			return m, loadOpportunities
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case opportunitiesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.opportunities = msg.opportunities
		if m.cursor >= len(m.opportunities) {
			m.cursor = 0
		}
		m.err = nil
		return m, nil

	case bundleLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = modeDetail
		m.activePanel = panelDetails
		m.bundle = msg.bundle
		m.insight = msg.insight
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" DealScope ")

	var help string
	if m.mode == modePicker {
		help = helpStyle.Render("up/down: select | enter: open | r: refresh | q: quit")
	} else {
		help = helpStyle.Render("tab: switch panel | r: reload | esc: back | q: quit")
	}

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	var body string
	if m.mode == modePicker {
		body = m.renderPicker()
	} else {
		body = m.renderDetail()
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) renderPicker() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Select an Opportunity"))
	b.WriteString("\n")

	if len(m.opportunities) == 0 {
		b.WriteString("  No opportunities found.")
		return b.String()
	}

	for i, opp := range m.opportunities {
		line := fmt.Sprintf("%-30s %-22s %-12s %s",
			truncate(opp.Name, 30),
			truncate(string(opp.StageName), 22),
			formatDate(opp.CloseDate),
			formatAmount(opp.Amount))
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m dashboardModel) renderDetail() string {
	detailsPanel := m.renderDetailsPanel()
	accountPanel := m.renderAccountPanel()
	insightPanel := m.renderInsightPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		detailsPanel = m.applyPanelStyle(panelDetails, detailsPanel, colWidth-4)
		accountPanel = m.applyPanelStyle(panelAccount, accountPanel, colWidth-4)
		insightPanel = m.applyPanelStyle(panelInsight, insightPanel, colWidth-4)
		return lipgloss.JoinHorizontal(lipgloss.Top, detailsPanel, accountPanel, insightPanel)
	}

	// Vertical layout: stacked.
	panelWidth := availableWidth - 4
	if panelWidth < 20 {
		panelWidth = 20
	}
	detailsPanel = m.applyPanelStyle(panelDetails, detailsPanel, panelWidth)
	accountPanel = m.applyPanelStyle(panelAccount, accountPanel, panelWidth)
	insightPanel = m.applyPanelStyle(panelInsight, insightPanel, panelWidth)
	return lipgloss.JoinVertical(lipgloss.Left, detailsPanel, accountPanel, insightPanel)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderDetailsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Opportunity"))
	b.WriteString("\n")

	opp := m.bundle.Opportunity
	lines := []struct {
		label string
		value string
	}{
		{"Name", opp.Name},
		{"Close Date", formatDate(opp.CloseDate)},
		{"Stage", string(opp.StageName)},
		{"Amount", formatAmount(opp.Amount)},
		{"Probability", formatProbability(opp.Probability)},
		{"Segment", strOrNA(opp.Segment)},
		{"Region", strOrNA(opp.Region)},
	}
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-12s %s\n", l.label, l.value))
	}

	b.WriteString("\n")
	if a := m.bundle.RecentActivity; a != nil {
		b.WriteString(fmt.Sprintf("  Last activity: %s (%s)\n", orNA(a.Subject), formatDate(a.ActivityDate)))
	} else {
		b.WriteString("  No recent activities.\n")
	}

	return b.String()
}

func (m dashboardModel) renderAccountPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Account & Contact"))
	b.WriteString("\n")

	acc := m.bundle.Account
	lines := []struct {
		label string
		value string
	}{
		{"Account", acc.Name},
		{"Number", strOrNA(acc.AccountNumber)},
		{"Industry", strOrNA(acc.Industry)},
		{"Priority", strOrNA(acc.CustomerPriority)},
		{"Type", strOrNA(acc.Type)},
		{"Rating", strOrNA(acc.Rating)},
	}
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-12s %s\n", l.label, l.value))
	}

	b.WriteString("\n")
	if c := m.bundle.PrimaryContact(); c != nil {
		b.WriteString(fmt.Sprintf("  Contact: %s (%s)\n", c.Name, orNA(c.Title)))
		b.WriteString(fmt.Sprintf("  %s / %s\n", orNA(c.Email), orNA(c.Phone)))
	} else {
		b.WriteString("  No contacts found.\n")
	}

	if n := len(m.bundle.Siblings); n > 0 {
		b.WriteString(fmt.Sprintf("\n  %d other opportunity(ies) for this account\n", n))
	}

	return b.String()
}

func (m dashboardModel) renderInsightPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Deal Accelerator"))
	b.WriteString("\n")

	in := m.insight
	b.WriteString("  " + styleForRisk(in.RiskMessage).Render(in.RiskMessage) + "\n\n")
	b.WriteString(fmt.Sprintf("  Next step: %s\n", in.NextStep))
	b.WriteString(fmt.Sprintf("  Action:    %s\n", in.RecommendedAction))
	if in.HighValueNote != nil {
		b.WriteString(fmt.Sprintf("  Note:      %s\n", *in.HighValueNote))
	}
	b.WriteString(fmt.Sprintf("  Guidance:  %s\n", in.StageGuidance))

	b.WriteString("\n")
	if len(in.Resources) == 0 {
		b.WriteString("  No resources available for this industry.\n")
	} else {
		b.WriteString("  Recommended resources:\n")
		for _, r := range in.Resources {
			b.WriteString(fmt.Sprintf("    - %s\n", r.Title))
		}
	}

	return b.String()
}

// styleForRisk colors the risk message by which rule produced it, keyed on
// the message's fixed prefix.
func styleForRisk(message string) lipgloss.Style {
	switch {
	case strings.Contains(message, "low win probability"):
		return riskLowProb
	case strings.Contains(message, "overdue"):
		return riskOverdue
	case strings.Contains(message, "nearing its close date"):
		return riskNearing
	case strings.Contains(message, "critical stage"):
		return riskCritical
	case strings.Contains(message, "on track"):
		return riskOnTrack
	default:
		return lipgloss.NewStyle()
	}
}

func loadOpportunities() tea.Msg {
	limit := 50
	if Config != nil && Config.QueryLimit > 0 {
		limit = Config.QueryLimit
	}

	opps, err := Fetcher.ListOpportunities(context.Background(), limit)
	if err != nil {
		logEvent("ERROR", observability.EventQueryFailed, err.Error(), nil)
		return opportunitiesLoadedMsg{err: fmt.Errorf("loading opportunities: %w", err)}
	}
	return opportunitiesLoadedMsg{opportunities: opps}
}

func loadBundle(id string) tea.Cmd {
	return func() tea.Msg {
		bundle, err := crm.FetchBundle(context.Background(), Fetcher, id)
		if err != nil {
			logEvent("ERROR", observability.EventQueryFailed, err.Error(), map[string]any{"opportunity_id": id})
			return bundleLoadedMsg{err: fmt.Errorf("loading opportunity %s: %w", id, err)}
		}

		insight := Engine.ComputeInsight(bundle.Opportunity, bundle.Account, time.Now())
		logEvent("INFO", observability.EventOpportunityViewed, bundle.Opportunity.Name, map[string]any{
			"opportunity_id": bundle.Opportunity.ID,
		})
		logEvent("INFO", observability.EventInsightComputed, insight.RiskMessage, map[string]any{
			"opportunity_id": bundle.Opportunity.ID,
			"days_remaining": insight.DaysRemaining,
		})
		return bundleLoadedMsg{bundle: bundle, insight: insight}
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI for browsing opportunities and guidance",
	Long: `Launch an interactive terminal dashboard: pick an opportunity from the
list, then inspect its details, account and contact information, and the
derived guidance side by side.

Navigate the list with up/down, open with Enter, switch panels with Tab,
reload with r, go back with Esc, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireFetcher(); err != nil {
			return err
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

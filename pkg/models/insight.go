package models

// Resource is a recommended document from the industry catalog. File is the
// filename under the configured resources directory.
type Resource struct {
	Title string `json:"title" yaml:"title"`
	File  string `json:"file" yaml:"file"`
}

// Insight is the engine's derived guidance for one opportunity. It is
// recomputed on every request and never persisted or mutated after creation.
type Insight struct {
	NextStep          string     `json:"next_step"`
	RiskMessage       string     `json:"risk_message"`
	RecommendedAction string     `json:"recommended_action"`
	HighValueNote     *string    `json:"high_value_note,omitempty"`
	StageGuidance     string     `json:"stage_guidance"`
	Resources         []Resource `json:"resources"`
	DaysRemaining     int        `json:"days_remaining"`
}

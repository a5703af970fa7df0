package models

// SalesforceConfig holds the credentials and connection settings for the
// record source, supplied at startup via .dealscope.yaml or environment
// variables.
type SalesforceConfig struct {
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	SecurityToken string `yaml:"security_token"`
	// Domain selects the login host: "login" for production, "test" for
	// sandboxes.
	Domain       string `yaml:"domain"`
	APIVersion   string `yaml:"api_version"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// HasCredentials reports whether enough is configured to attempt a login.
func (c SalesforceConfig) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

// AppConfig is the merged runtime configuration for DealScope.
type AppConfig struct {
	Salesforce SalesforceConfig `yaml:"salesforce"`
	// QueryLimit caps the opportunity list query.
	QueryLimit int `yaml:"query_limit"`
	// ResourceDir is where catalog files live on disk.
	ResourceDir string `yaml:"resource_dir"`
	// CatalogPath optionally overrides the embedded industry catalog.
	CatalogPath string `yaml:"catalog_path"`
	// EventsEnabled toggles the JSONL event log.
	EventsEnabled bool `yaml:"events_enabled"`
}

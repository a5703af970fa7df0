// Package core contains the business logic for DealScope: configuration
// loading, the opportunity insight engine, and the industry resource catalog.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dealscope/dealscope/pkg/models"
	"github.com/spf13/viper"
)

// validAPIVersionPattern matches Salesforce REST API versions like "59.0".
var validAPIVersionPattern = regexp.MustCompile(`^[0-9]{2,3}\.[0-9]$`)

// ConfigurationManager loads and validates the DealScope configuration from
// a .dealscope.yaml file and environment overrides.
type ConfigurationManager interface {
	Load() (*models.AppConfig, error)
	Validate(cfg *models.AppConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	// basePath is the directory where .dealscope.yaml resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// defaultAppConfig returns an AppConfig populated with sensible defaults.
// Credentials have no default; without them the app runs in degraded mode.
func defaultAppConfig() *models.AppConfig {
	return &models.AppConfig{
		Salesforce: models.SalesforceConfig{
			Domain:     "login",
			APIVersion: "59.0",
		},
		QueryLimit:    50,
		ResourceDir:   "resources",
		EventsEnabled: true,
	}
}

// Load reads .dealscope.yaml from the base path using Viper. If the file
// does not exist, defaults plus any environment overrides are returned.
func (cm *viperConfigManager) Load() (*models.AppConfig, error) {
	cfg := defaultAppConfig()

	v := viper.New()
	v.SetConfigName(".dealscope")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("salesforce.domain", cfg.Salesforce.Domain)
	v.SetDefault("salesforce.api_version", cfg.Salesforce.APIVersion)
	v.SetDefault("query.limit", cfg.QueryLimit)
	v.SetDefault("resources.dir", cfg.ResourceDir)
	v.SetDefault("events.enabled", cfg.EventsEnabled)

	// Credentials may come from the environment instead of the file,
	// e.g. DEALSCOPE_SALESFORCE_USERNAME.
	v.SetEnvPrefix("DEALSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{
		"salesforce.username",
		"salesforce.password",
		"salesforce.security_token",
		"salesforce.domain",
		"salesforce.client_id",
		"salesforce.client_secret",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading .dealscope.yaml: %w", err)
		}
		// No config file found; continue with defaults and env.
	}

	cfg.Salesforce.Username = v.GetString("salesforce.username")
	cfg.Salesforce.Password = v.GetString("salesforce.password")
	cfg.Salesforce.SecurityToken = v.GetString("salesforce.security_token")
	cfg.Salesforce.Domain = v.GetString("salesforce.domain")
	cfg.Salesforce.APIVersion = v.GetString("salesforce.api_version")
	cfg.Salesforce.ClientID = v.GetString("salesforce.client_id")
	cfg.Salesforce.ClientSecret = v.GetString("salesforce.client_secret")
	cfg.QueryLimit = v.GetInt("query.limit")
	cfg.ResourceDir = v.GetString("resources.dir")
	cfg.CatalogPath = v.GetString("resources.catalog")
	cfg.EventsEnabled = v.GetBool("events.enabled")

	return cfg, nil
}

// Validate checks the configuration for invalid values and returns a clear
// error identifying the problem. Missing credentials are not an error here;
// they only disable the data views.
func (cm *viperConfigManager) Validate(cfg *models.AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	sf := cfg.Salesforce
	if (sf.Username == "") != (sf.Password == "") {
		errs = append(errs, "salesforce.username and salesforce.password must be set together")
	}
	if sf.Domain == "" {
		errs = append(errs, "salesforce.domain must not be empty")
	}
	if !validAPIVersionPattern.MatchString(sf.APIVersion) {
		errs = append(errs, fmt.Sprintf("salesforce.api_version %q is not a valid version (expected e.g. 59.0)", sf.APIVersion))
	}
	if cfg.QueryLimit <= 0 {
		errs = append(errs, "query.limit must be positive")
	}
	if cfg.ResourceDir == "" {
		errs = append(errs, "resources.dir must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

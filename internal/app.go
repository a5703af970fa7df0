// Package internal provides the App struct that wires all components of
// DealScope together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dealscope/dealscope/internal/cli"
	"github.com/dealscope/dealscope/internal/core"
	"github.com/dealscope/dealscope/internal/crm"
	"github.com/dealscope/dealscope/internal/observability"
	"github.com/dealscope/dealscope/pkg/models"
)

// loginTimeout bounds the startup login call so a dead record source does
// not hang the CLI.
const loginTimeout = 30 * time.Second

// App holds all service dependencies for DealScope.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.AppConfig

	// Record source
	Client  *crm.Client
	Fetcher crm.RecordFetcher
	// ConnectErr records why the record source is unavailable. All data
	// views stay disabled for the process lifetime when it is set.
	ConnectErr error

	// Core services
	Engine  core.InsightEngine
	Library core.ResourceLibrary

	// Observability
	EventLog observability.EventLog
}

// NewApp creates and wires all components of DealScope. basePath is the
// directory holding .dealscope.yaml and relative resource paths. A missing
// or unreachable record source is not fatal: the app comes up in degraded
// mode with only the static views usable.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.Validate(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Observability ---
	if cfg.EventsEnabled {
		eventLogPath := filepath.Join(basePath, ".dealscope_events.jsonl")
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: run without the event log if it can't be created.
			app.EventLog = nil
		}
	}

	// --- Resource catalog ---
	catalogPath := cfg.CatalogPath
	if catalogPath != "" && !filepath.IsAbs(catalogPath) {
		catalogPath = filepath.Join(basePath, catalogPath)
	}
	resourceDir := cfg.ResourceDir
	if !filepath.IsAbs(resourceDir) {
		resourceDir = filepath.Join(basePath, resourceDir)
	}
	app.Library, err = core.NewResourceLibrary(resourceDir, catalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading resource catalog: %w", err)
	}

	// --- Insight engine ---
	app.Engine = core.NewInsightEngine(app.Library)

	// --- Record source session ---
	// Established once; a failure here disables every data view rather
	// than being retried later.
	if cfg.Salesforce.HasCredentials() {
		app.Client = crm.NewClient(cfg.Salesforce)

		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()

		if err := app.Client.Login(ctx); err != nil {
			app.ConnectErr = err
			app.logEvent("ERROR", observability.EventLoginFailed, err.Error())
		} else {
			app.Fetcher = crm.NewRecordFetcher(app.Client)
			app.logEvent("INFO", observability.EventLogin, "record source session established")
		}
	} else {
		app.ConnectErr = fmt.Errorf("no credentials configured")
	}

	// --- CLI layer ---
	cli.Config = app.Config
	cli.Fetcher = app.Fetcher
	cli.Engine = app.Engine
	cli.Library = app.Library
	cli.EventLog = app.EventLog
	cli.ConnectErr = app.ConnectErr

	return app, nil
}

func (a *App) logEvent(level, eventType, message string) {
	if a.EventLog == nil {
		return
	}
	_ = a.EventLog.Write(observability.NewEvent(level, eventType, message, nil))
}

// ResolveBasePath determines the DealScope base directory: DEALSCOPE_HOME
// if set, otherwise the nearest ancestor directory containing
// .dealscope.yaml, otherwise the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("DEALSCOPE_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".dealscope.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

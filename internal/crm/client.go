// Package crm implements the read-only Salesforce REST client DealScope
// uses as its record source. A session is established once at startup and
// reused for the process lifetime; no writes are ever issued.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dealscope/dealscope/pkg/models"
)

// Client is a minimal Salesforce REST API client. It supports the
// username-password OAuth flow and read-only query/retrieve calls.
type Client struct {
	httpClient *http.Client
	loginURL   string
	apiVersion string

	username     string
	password     string
	clientID     string
	clientSecret string

	instanceURL string
	accessToken string
}

// NewClient creates a Client from the Salesforce configuration. The security
// token is appended to the password, as the password flow requires.
func NewClient(cfg models.SalesforceConfig) *Client {
	return &Client{
		httpClient:   &http.Client{},
		loginURL:     fmt.Sprintf("https://%s.salesforce.com", cfg.Domain),
		apiVersion:   cfg.APIVersion,
		username:     cfg.Username,
		password:     cfg.Password + cfg.SecurityToken,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
}

// tokenResponse is the OAuth token endpoint's success payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
}

// tokenError is the OAuth token endpoint's failure payload.
type tokenError struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// Login authenticates with the username-password flow and stores the access
// token and instance URL for subsequent calls.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"username":      {c.username},
		"password":      {c.password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL+"/services/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logging in to %s: %w", c.loginURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var te tokenError
		if json.Unmarshal(body, &te) == nil && te.Error != "" {
			return fmt.Errorf("login failed: %s: %s", te.Error, te.Description)
		}
		return fmt.Errorf("login failed: status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}
	if tr.AccessToken == "" || tr.InstanceURL == "" {
		return fmt.Errorf("login response missing access token or instance URL")
	}

	c.accessToken = tr.AccessToken
	c.instanceURL = tr.InstanceURL
	return nil
}

// queryResponse is the REST query endpoint's payload. Records are kept raw
// so callers can decode into their own row types.
type queryResponse struct {
	TotalSize int               `json:"totalSize"`
	Done      bool              `json:"done"`
	Records   []json.RawMessage `json:"records"`
}

// restError is one element of the REST API's error array payload.
type restError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// Query executes a SOQL query and returns the raw record payloads.
func (c *Client) Query(ctx context.Context, soql string) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/services/data/v%s/query?q=%s", c.instanceURL, c.apiVersion, url.QueryEscape(soql))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	return qr.Records, nil
}

// Retrieve fetches a single sobject by ID and decodes it into dst.
func (c *Client) Retrieve(ctx context.Context, sobject string, id string, dst any) error {
	endpoint := fmt.Sprintf("%s/services/data/v%s/sobjects/%s/%s", c.instanceURL, c.apiVersion, sobject, url.PathEscape(id))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decoding %s %s: %w", sobject, id, err)
	}
	return nil
}

// get issues an authenticated GET and returns the response body, converting
// non-200 statuses into errors carrying the API's message.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if c.accessToken == "" {
		return nil, fmt.Errorf("not logged in")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling record source: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errs []restError
		if json.Unmarshal(body, &errs) == nil && len(errs) > 0 {
			return nil, fmt.Errorf("record source error %s: %s", errs[0].ErrorCode, errs[0].Message)
		}
		return nil, fmt.Errorf("record source returned status %d", resp.StatusCode)
	}

	return body, nil
}

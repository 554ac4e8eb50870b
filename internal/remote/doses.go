// Package remote implements the hosted backend's dose store client.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daniel-odulate22/vigil-scan/config"
	"github.com/daniel-odulate22/vigil-scan/internal/model"
)

// doseRow is the remote table's row shape. The client-generated queue ID and
// local createdAt stamp are not part of the remote schema.
type doseRow struct {
	UserID         string  `json:"user_id"`
	MedicationName string  `json:"medication_name"`
	Verified       bool    `json:"verified"`
	TakenAt        string  `json:"taken_at"`
	PrescriptionID *string `json:"prescription_id,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// Client inserts dose rows into the hosted store over its REST surface.
type Client struct {
	baseURL string
	table   string
	apiKey  string
	headers map[string]string
	client  *http.Client
}

// NewClient creates a remote dose store client from config.
func NewClient(cfg *config.RemoteConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		table:   cfg.Table,
		apiKey:  cfg.APIKey,
		headers: cfg.Headers,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// Insert writes one dose row. A non-2xx response is an error; the caller
// decides whether the record stays queued.
func (c *Client) Insert(ctx context.Context, dose *model.PendingDose) error {
	row := doseRow{
		UserID:         dose.UserID,
		MedicationName: dose.MedicationName,
		Verified:       dose.Verified,
		TakenAt:        dose.TakenAt.UTC().Format(time.RFC3339),
		PrescriptionID: dose.PrescriptionID,
		Notes:          dose.Notes,
	}

	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal dose row: %w", err)
	}

	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote store returned status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

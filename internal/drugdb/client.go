// Package drugdb resolves scanned barcodes against the public drug database
// and checks interactions between medications.
package drugdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/daniel-odulate22/vigil-scan/config"
)

// Medication is an authoritative drug database record.
type Medication struct {
	Name         string `json:"name"`
	GenericName  string `json:"genericName,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	DosageForm   string `json:"dosageForm,omitempty"`
	NDC          string `json:"ndc,omitempty"`
}

// Interaction is one reported interaction between two medications.
type Interaction struct {
	First       string `json:"first"`
	Second      string `json:"second"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// ErrNotFound is returned when the database has no record for a code.
var ErrNotFound = fmt.Errorf("medication not found")

// Client queries the external drug database. Lookup responses are cached;
// the upstream rate-limits aggressively and product records rarely change.
type Client struct {
	lookupURL      string
	interactionURL string
	client         *http.Client
	cache          *cache.Cache
}

// NewClient creates a drug database client from config.
func NewClient(cfg *config.DrugDBConfig) *Client {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return &Client{
		lookupURL:      cfg.LookupURL,
		interactionURL: cfg.InteractionURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		cache: cache.New(ttl, 2*ttl),
	}
}

type lookupResponse struct {
	Results []struct {
		BrandName    string `json:"brand_name"`
		GenericName  string `json:"generic_name"`
		LabelerName  string `json:"labeler_name"`
		DosageForm   string `json:"dosage_form"`
		ProductNDC   string `json:"product_ndc"`
	} `json:"results"`
}

// Lookup resolves a normalized barcode value to a medication record.
func (c *Client) Lookup(ctx context.Context, code string) (*Medication, error) {
	if cached, found := c.cache.Get("lookup:" + code); found {
		med := cached.(Medication)
		return &med, nil
	}

	u := fmt.Sprintf("%s?code=%s", c.lookupURL, url.QueryEscape(code))
	var resp lookupResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}

	r := resp.Results[0]
	name := r.BrandName
	if name == "" {
		name = r.GenericName
	}
	if name == "" {
		return nil, ErrNotFound
	}

	med := Medication{
		Name:         name,
		GenericName:  r.GenericName,
		Manufacturer: r.LabelerName,
		DosageForm:   r.DosageForm,
		NDC:          r.ProductNDC,
	}
	c.cache.SetDefault("lookup:"+code, med)
	return &med, nil
}

type interactionResponse struct {
	Interactions []struct {
		Drugs       []string `json:"drugs"`
		Severity    string   `json:"severity"`
		Description string   `json:"description"`
	} `json:"interactions"`
}

// CheckInteractions queries reported interactions among the given
// medication names. Fewer than two names cannot interact.
func (c *Client) CheckInteractions(ctx context.Context, names []string) ([]Interaction, error) {
	if len(names) < 2 {
		return nil, nil
	}

	u := fmt.Sprintf("%s?drugs=%s", c.interactionURL, url.QueryEscape(strings.Join(names, ",")))
	var resp interactionResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	out := make([]Interaction, 0, len(resp.Interactions))
	for _, in := range resp.Interactions {
		if len(in.Drugs) < 2 {
			continue
		}
		out = append(out, Interaction{
			First:       in.Drugs[0],
			Second:      in.Drugs[1],
			Severity:    in.Severity,
			Description: in.Description,
		})
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("drug database returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// Package izerwaren is a minimal HTTP client for the legacy Izerwaren catalog
// feed API, the upstream source of truth for the import pipeline.
package izerwaren

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/izerwaren/catalog-importer/internal/models"
)

// Client talks to the catalog feed API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	debug      bool
}

// NewClient constructs a new feed client with sane defaults.
func NewClient(baseURL, apiKey string, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		pageSize:   pageSize,
		debug:      os.Getenv("ENV") == "development",
	}
}

// Ping checks feed reachability, used for prerequisite validation.
func (c *Client) Ping(ctx context.Context) error {
	return c.doRequest(ctx, "/v1/health", &struct{}{})
}

// ListAll fetches every catalog record, draining pagination internally so
// callers always see the flat, complete record set.
func (c *Client) ListAll(ctx context.Context) ([]models.CatalogRecord, error) {
	var records []models.CatalogRecord

	page := 1
	for {
		query := url.Values{}
		query.Set("page", fmt.Sprintf("%d", page))
		query.Set("pageSize", fmt.Sprintf("%d", c.pageSize))

		var resp ProductPageResponse
		if err := c.doRequest(ctx, "/v1/products?"+query.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("failed to list products page %d: %w", page, err)
		}
		records = append(records, resp.Data...)

		if page >= resp.Pagination.TotalPages || len(resp.Data) == 0 {
			break
		}
		page++
	}

	log.Debug().Int("records", len(records)).Msg("[IZERWAREN] Catalog listing drained")
	return records, nil
}

// GetVariantSchema fetches the declared variant structure for one product.
func (c *Client) GetVariantSchema(ctx context.Context, sku string) (*models.VariantSchema, error) {
	var resp VariantSchemaResponse
	endpoint := "/v1/products/" + url.PathEscape(sku) + "/variants"
	if err := c.doRequest(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to get variant schema for %s: %w", sku, err)
	}
	return &resp.Data, nil
}

// GetTechnicalAttributes fetches the specification sheet for one product,
// grouped by category.
func (c *Client) GetTechnicalAttributes(ctx context.Context, sku string) (map[string][]models.TechAttribute, error) {
	var resp SpecificationsResponse
	endpoint := "/v1/products/" + url.PathEscape(sku) + "/specifications"
	if err := c.doRequest(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to get specifications for %s: %w", sku, err)
	}
	return resp.Data, nil
}

// doRequest performs an HTTP GET against the feed API and decodes the JSON
// response into result. Any non-2xx status is returned as an error so the
// retry helper upstream treats it as retryable.
func (c *Client) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Debug logging for development
	if c.debug {
		log.Debug().
			Str("endpoint", endpoint).
			Int("status_code", resp.StatusCode).
			Msg("[IZERWAREN] Incoming response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("feed returned status %d for %s", resp.StatusCode, endpoint)
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

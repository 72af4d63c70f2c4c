// Package catalog looks up food products in the external nutrition catalog
// and normalizes them into candidates with a calories-per-100g density.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// FoodCandidate is a catalog hit proposed to the user. Never persisted
// beyond the active session.
type FoodCandidate struct {
	Name            string
	CaloriesPer100g float64
}

// Client calls the catalog's search endpoint. One outbound call per Search;
// no retries — the caller re-invokes if it wants another attempt.
type Client struct {
	http *resty.Client
}

// NewClient creates a catalog client against the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{http: c}
}

// searchResponse mirrors the subset of the catalog payload we consume.
// Records are heterogeneous; anything malformed is skipped, never fatal.
type searchResponse struct {
	Products []productRecord `json:"products"`
}

type productRecord struct {
	ProductName string     `json:"product_name"`
	Nutriments  nutriments `json:"nutriments"`
}

type nutriments struct {
	KcalPer100g flexFloat `json:"energy-kcal_100g"`
	Kcal        flexFloat `json:"energy-kcal"`
}

// flexFloat accepts a JSON number or a numeric string; the catalog emits
// both. Anything else reads as absent.
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	// Unmarshal treats a JSON null as a no-op with a nil error; it must read
	// as absent here or the secondary-field fallback never triggers.
	if string(b) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.value, f.set = n, true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			f.value, f.set = n, true
		}
	}
	return nil
}

// Search queries the catalog for a free-text food name. Transport errors,
// non-success responses and unparsable payloads all yield an empty result;
// the condition is logged but never propagated.
func (c *Client) Search(ctx context.Context, query string) []FoodCandidate {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search_terms":  query,
			"search_simple": "1",
			"action":        "process",
			"json":          "1",
			"page_size":     "20",
		}).
		Get("/cgi/search.pl")
	if err != nil {
		slog.Error("CATALOG: Search request failed", "query", query, "error", err)
		return nil
	}
	if resp.StatusCode() != http.StatusOK {
		slog.Error("CATALOG: Search returned non-success status", "query", query, "status", resp.StatusCode())
		return nil
	}

	var body searchResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		slog.Error("CATALOG: Failed to decode search response", "query", query, "error", err)
		return nil
	}

	candidates := make([]FoodCandidate, 0, len(body.Products))
	for _, prod := range body.Products {
		name := strings.TrimSpace(prod.ProductName)
		if name == "" {
			continue
		}

		cal := prod.Nutriments.KcalPer100g
		if !cal.set {
			cal = prod.Nutriments.Kcal
		}
		if !cal.set || cal.value <= 0 {
			continue
		}

		candidates = append(candidates, FoodCandidate{Name: name, CaloriesPer100g: cal.value})
	}

	slog.Info("CATALOG: Search completed", "query", query, "raw_products", len(body.Products), "candidates", len(candidates))
	return candidates
}

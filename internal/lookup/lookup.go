// Package lookup talks to the food-data proxy that normalizes USDA search
// results and Open Food Facts barcode records into one shape.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/macrolog/internal/errors"
	"github.com/hpungsan/macrolog/internal/logging"
	"github.com/hpungsan/macrolog/internal/metrics"
	"github.com/hpungsan/macrolog/internal/scale"
)

// DefaultPageSize matches the proxy's own default.
const DefaultPageSize = 25

// MaxPageSize is the largest page the proxy will return.
const MaxPageSize = 200

// maxBody caps how much of a proxy response is read.
const maxBody = 4 << 20

// Candidate is one food the user can pick and scale.
type Candidate struct {
	ID           string          `json:"id"`
	Source       string          `json:"source,omitempty"`
	Description  string          `json:"description"`
	BrandName    string          `json:"brand_name,omitempty"`
	Per100g      *scale.Baseline `json:"per_100g,omitempty"`
	Units        []scale.Unit    `json:"units"`
	ServingGrams float64         `json:"serving_grams,omitempty"`
}

// DisplayName is "Brand Description", or just the description.
func (c Candidate) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(c.BrandName) + " " + strings.TrimSpace(c.Description))
}

// ScalingUnits returns the usable units, falling back to gram and ounce.
func (c Candidate) ScalingUnits() []scale.Unit {
	return scale.UnitsOrDefault(c.Units)
}

// Finder finds foods by free text or barcode.
type Finder interface {
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
	// Barcode returns nil without error when the code is unknown.
	Barcode(ctx context.Context, code string) (*Candidate, error)
}

// Client is a Finder backed by the proxy's HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewClient returns a Client for the proxy at baseURL. apiKey is sent as
// X-Api-Key when non-empty.
func NewClient(baseURL, apiKey string, timeout time.Duration, log logrus.FieldLogger, m *metrics.Metrics) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     logging.Component(log, "lookup"),
		metrics: m,
	}
}

// wire types mirror the proxy's JSON.

type wireMacros struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
}

type wireServing struct {
	Grams float64 `json:"grams"`
}

type wireUnit struct {
	Label        string  `json:"label"`
	GramsPerUnit float64 `json:"gramsPerUnit"`
}

type wireItem struct {
	Source      string      `json:"source"`
	FdcID       json.Number `json:"fdcId"`
	Code        string      `json:"code"`
	Description string      `json:"description"`
	BrandName   string      `json:"brandName"`
	Servings    struct {
		Per100g    *wireMacros  `json:"per100g"`
		PerServing *wireServing `json:"perServing"`
	} `json:"servings"`
	Units []wireUnit `json:"units"`
}

type searchResponse struct {
	TotalHits  int        `json:"totalHits"`
	PageNumber int        `json:"pageNumber"`
	Items      []wireItem `json:"items"`
}

type itemResponse struct {
	Item *wireItem `json:"item"`
}

func (w wireItem) candidate() Candidate {
	c := Candidate{
		ID:          w.FdcID.String(),
		Source:      w.Source,
		Description: w.Description,
		BrandName:   w.BrandName,
	}
	if c.ID == "" {
		c.ID = w.Code
	}
	if p := w.Servings.Per100g; p != nil {
		c.Per100g = &scale.Baseline{Calories: p.Calories, Protein: p.Protein, Carbs: p.Carbs, Fat: p.Fat}
	}
	if s := w.Servings.PerServing; s != nil {
		c.ServingGrams = s.Grams
	}
	for _, u := range w.Units {
		c.Units = append(c.Units, scale.Unit{Label: u.Label, GramsPerUnit: u.GramsPerUnit})
	}
	c.Units = scale.UnitsOrDefault(c.Units)
	return c
}

// Search runs a free-text search. limit is clamped to [1, MaxPageSize];
// zero means DefaultPageSize.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)

	params := url.Values{}
	params.Set("q", query)
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("pageNumber", "1")

	var resp searchResponse
	_, err := c.get(ctx, "/api/foods/search?"+params.Encode(), &resp)
	c.metrics.Lookup("search", err)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, item.candidate())
	}
	c.log.WithFields(logrus.Fields{"query": query, "hits": resp.TotalHits, "returned": len(out)}).Debug("food search")
	return out, nil
}

// Barcode looks up a packaged product.
func (c *Client) Barcode(ctx context.Context, code string) (*Candidate, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.NewInvalidRequest("barcode is required")
	}

	var resp itemResponse
	found, err := c.get(ctx, "/api/barcode/"+url.PathEscape(code), &resp)
	c.metrics.Lookup("barcode", err)
	if err != nil {
		return nil, err
	}
	if !found || resp.Item == nil {
		return nil, nil
	}
	cand := resp.Item.candidate()
	if cand.ID == "" {
		cand.ID = code
	}
	return &cand, nil
}

// get decodes a 200 response into out. A 404 reports found=false.
func (c *Client) get(ctx context.Context, path string, out any) (found bool, err error) {
	if c.baseURL == "" {
		return false, errors.NewLookupFailed("lookup_url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, errors.NewLookupFailed(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, errors.NewCancelled("lookup")
		}
		return false, errors.NewLookupFailed(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return false, errors.NewLookupFailed(fmt.Sprintf("read response: %v", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		c.log.WithFields(logrus.Fields{"status": resp.StatusCode, "path": req.URL.Path}).Warn("lookup proxy error")
		return false, errors.NewLookupFailed(fmt.Sprintf("proxy returned status %d: %s", resp.StatusCode, snippet(body)))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, errors.NewLookupFailed(fmt.Sprintf("decode response: %v", err))
	}
	return true, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

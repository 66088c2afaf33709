package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Fetcher retrieves suggestions for a query.
type Fetcher interface {
	Fetch(ctx context.Context, query string, limit int) (Result, error)
}

// ErrUnsuccessful means the endpoint answered with success=false.
var ErrUnsuccessful = errors.New("suggestion endpoint reported failure")

// HTTPFetcher calls the catalog suggestion endpoint:
// GET <endpoint>?q=<query>&limit=<limit>.
type HTTPFetcher struct {
	client   *http.Client
	endpoint *url.URL
}

// NewHTTPFetcher parses endpoint. A nil client means http.DefaultClient.
func NewHTTPFetcher(endpoint string, client *http.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse suggestions url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client, endpoint: u}, nil
}

type suggestionsResponse struct {
	Success    bool         `json:"success"`
	Products   []productDTO `json:"products"`
	Categories []Category   `json:"categories"`
	Queries    []Query      `json:"queries"`
}

// productDTO mirrors the endpoint, where image_url may be null.
type productDTO struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	FormattedPrice string  `json:"formatted_price"`
	Category       string  `json:"category"`
	CategoryIcon   string  `json:"category_icon"`
	ImageURL       *string `json:"image_url"`
}

// Fetch issues one request. Non-2xx status, undecodable bodies and
// success=false are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, query string, limit int) (Result, error) {
	u := *f.endpoint
	q := u.Query()
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch suggestions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return Result{}, fmt.Errorf("fetch suggestions: unexpected status %d", resp.StatusCode)
	}

	var body suggestionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("decode suggestions: %w", err)
	}
	if !body.Success {
		return Result{}, ErrUnsuccessful
	}

	res := Result{Categories: body.Categories, Queries: body.Queries}
	for _, p := range body.Products {
		prod := Product{
			ID:           p.ID,
			Name:         p.Name,
			Slug:         p.Slug,
			Price:        p.FormattedPrice,
			Category:     p.Category,
			CategoryIcon: p.CategoryIcon,
		}
		if p.ImageURL != nil {
			prod.ImageURL = *p.ImageURL
		}
		res.Products = append(res.Products, prod)
	}
	return res, nil
}

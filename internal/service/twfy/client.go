package twfy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/kapu/dmmymp-go/internal/util"
	"github.com/kapu/dmmymp-go/pkg/errors"
	"go.uber.org/zap"
)

// Requester performs one raw call against the TheyWorkForYou API.
type Requester interface {
	DoRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error)
}

// Client talks to the TheyWorkForYou JSON API. Each call is a single
// attempt; repeated failures open the circuit breaker.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *util.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(httpClient *http.Client, baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		breaker: util.NewCircuitBreaker("twfy",
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		logger: logger,
	}
}

// MPQuery selects an MP by name and constituency, or by constituency alone.
type MPQuery struct {
	Name         string
	Constituency string
	Postcode     string
}

func (c *Client) DoRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if !c.breaker.CanExecute() {
		c.logger.Warn("TWFY circuit breaker is open", zap.String("endpoint", endpoint))
		return nil, errors.NewAPIError("TheyWorkForYou circuit breaker open", http.StatusServiceUnavailable, map[string]any{
			"endpoint": endpoint,
		})
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.apiKey)
	params.Set("output", "js")
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.breaker.Release()
		return nil, fmt.Errorf("twfy %s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", constants.APIConfig.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordTransportFailure(ctx)
		return nil, fmt.Errorf("twfy %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordTransportFailure(ctx)
		return nil, fmt.Errorf("twfy %s: read body: %w", endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.breaker.RecordFailure(constants.CircuitBreakerConfig.RateLimitTimeout)
		return nil, errors.NewAPIError("TheyWorkForYou rate limited", resp.StatusCode, map[string]any{
			"endpoint": endpoint,
		})
	case resp.StatusCode >= 500:
		c.breaker.RecordFailure(0)
		return nil, errors.NewAPIError(fmt.Sprintf("Server error: %d", resp.StatusCode), resp.StatusCode, map[string]any{
			"endpoint": endpoint,
		})
	case resp.StatusCode >= 400:
		c.breaker.RecordSuccess()
		return nil, errors.NewAPIError(fmt.Sprintf("Client error: %d", resp.StatusCode), resp.StatusCode, map[string]any{
			"endpoint": endpoint,
			"body":     util.Summarize(string(body), 200),
		})
	}

	c.breaker.RecordSuccess()

	// TWFY reports application errors as 200 {"error": "..."}.
	if msg := apiErrorMessage(body); msg != "" {
		return nil, errors.NewAPIError("TheyWorkForYou error: "+msg, http.StatusBadGateway, map[string]any{
			"endpoint": endpoint,
		})
	}
	return body, nil
}

// recordTransportFailure counts a failed round trip against the upstream
// unless the caller's own context ended it.
func (c *Client) recordTransportFailure(ctx context.Context) {
	if ctx.Err() != nil {
		c.breaker.Release()
		return
	}
	c.breaker.RecordFailure(0)
}

func apiErrorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") || !strings.Contains(trimmed, `"error"`) {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}

// GetMP resolves an MP. The API answers with either an object or an array;
// the first element wins.
func (c *Client) GetMP(ctx context.Context, q MPQuery) (*MP, error) {
	params := url.Values{}
	if q.Name != "" {
		params.Set("name", q.Name)
	}
	if q.Constituency != "" {
		params.Set("constituency", q.Constituency)
	}
	if q.Postcode != "" {
		params.Set("postcode", q.Postcode)
	}

	body, err := c.DoRequest(ctx, "getMP", params)
	if err != nil {
		return nil, err
	}
	return decodeMP(body)
}

func decodeMP(body []byte) (*MP, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var list []MP
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("decode getMP list: %w", err)
		}
		if len(list) == 0 {
			return &MP{}, nil
		}
		return &list[0], nil
	}

	var mp MP
	if err := json.Unmarshal(body, &mp); err != nil {
		return nil, fmt.Errorf("decode getMP: %w", err)
	}
	return &mp, nil
}

func (c *Client) GetMPInfo(ctx context.Context, personID string) (*MemberInfo, error) {
	params := url.Values{}
	params.Set("id", personID)

	body, err := c.DoRequest(ctx, "getMPInfo", params)
	if err != nil {
		return nil, err
	}
	return ParseMemberInfo(body)
}

// GetDreamMPs lists the policy ids the API knows about. A non-array body
// decodes as an empty list.
func (c *Client) GetDreamMPs(ctx context.Context) ([]domain.DiscoveredTopic, error) {
	body, err := c.DoRequest(ctx, "getDreamMPs", nil)
	if err != nil {
		return nil, err
	}

	var raw []dreamMP
	if err := json.Unmarshal(body, &raw); err != nil {
		c.logger.Warn("getDreamMPs returned a non-list payload", zap.Error(err))
		return []domain.DiscoveredTopic{}, nil
	}

	topics := make([]domain.DiscoveredTopic, 0, len(raw))
	for _, d := range raw {
		if d.ID == "" {
			continue
		}
		topics = append(topics, domain.DiscoveredTopic{ID: string(d.ID), Description: d.Description})
	}
	return topics, nil
}

// GetHansard fetches one page of an MP's contributions, newest first.
func (c *Client) GetHansard(ctx context.Context, personID string, page, perPage int) ([]domain.ActivityEntry, error) {
	params := url.Values{}
	params.Set("person", personID)
	params.Set("order", "d")
	params.Set("num", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))

	body, err := c.DoRequest(ctx, "getHansard", params)
	if err != nil {
		return nil, err
	}

	var payload hansardPage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode getHansard page %d: %w", page, err)
	}

	entries := make([]domain.ActivityEntry, 0, len(payload.Rows))
	for _, row := range payload.Rows {
		entries = append(entries, row.toDomain())
	}
	return entries, nil
}

func (c *Client) IsCircuitOpen() bool {
	return c.breaker.GetState() == util.CircuitStateOpen
}

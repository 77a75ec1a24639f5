package postcode

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kapu/dmmymp-go/internal/constants"
	"github.com/kapu/dmmymp-go/internal/util"
	"github.com/kapu/dmmymp-go/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrPostcodeNotFound = stderrors.New("invalid postcode or service unavailable")
	ErrNoConstituency   = stderrors.New("no constituency found for this postcode")
	ErrTimeout          = stderrors.New("postcode lookup timed out")
)

// Client resolves postcodes to parliamentary constituencies via postcodes.io.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	breaker    *util.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(httpClient *http.Client, baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = constants.APIConfig.PostcodesTimeout
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		breaker: util.NewCircuitBreaker("postcodes",
			constants.CircuitBreakerConfig.FailureThreshold,
			constants.CircuitBreakerConfig.ResetTimeout,
			logger,
		),
		logger: logger,
	}
}

// Normalize upper-cases a postcode and removes all whitespace.
func Normalize(postcode string) string {
	return strings.ToUpper(util.StripSpaces(postcode))
}

type lookupResponse struct {
	Status int `json:"status"`
	Result *struct {
		Postcode                  string `json:"postcode"`
		ParliamentaryConstituency string `json:"parliamentary_constituency"`
	} `json:"result"`
}

// LookupConstituency returns the parliamentary constituency for postcode.
func (c *Client) LookupConstituency(ctx context.Context, postcode string) (string, error) {
	pc := Normalize(postcode)
	if pc == "" {
		return "", errors.NewValidationError("No postcode provided", "postcode", postcode)
	}
	if !c.breaker.CanExecute() {
		return "", errors.NewAPIError("postcodes.io circuit breaker open", http.StatusServiceUnavailable, nil)
	}

	callerCtx := ctx
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/postcodes/"+url.PathEscape(pc), nil)
	if err != nil {
		c.breaker.Release()
		return "", fmt.Errorf("postcode lookup: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A caller that went away says nothing about postcodes.io.
		if callerCtx.Err() != nil {
			c.breaker.Release()
			return "", fmt.Errorf("postcode lookup: %w", err)
		}
		c.breaker.RecordFailure(0)
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger.Warn("Postcode lookup timed out", zap.String("postcode", pc))
			return "", ErrTimeout
		}
		return "", fmt.Errorf("postcode lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure(0)
		return "", ErrPostcodeNotFound
	}
	c.breaker.RecordSuccess()
	if resp.StatusCode != http.StatusOK {
		return "", ErrPostcodeNotFound
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("postcode lookup: read body: %w", err)
	}

	var payload lookupResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("postcode lookup: decode: %w", err)
	}
	if payload.Result == nil || strings.TrimSpace(payload.Result.ParliamentaryConstituency) == "" {
		return "", ErrNoConstituency
	}
	return payload.Result.ParliamentaryConstituency, nil
}

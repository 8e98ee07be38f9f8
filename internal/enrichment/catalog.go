package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"golang-sales-analytics/internal/models"
	"golang-sales-analytics/internal/resilience"
	"golang-sales-analytics/pkg/errors"
	"golang-sales-analytics/pkg/logger"
)

// CatalogConfig configures the product catalog client
type CatalogConfig struct {
	URL            string        `json:"url" mapstructure:"url"`
	Limit          int           `json:"limit" mapstructure:"limit"`
	Timeout        time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries     int           `json:"max_retries" mapstructure:"max_retries"`
	InitialBackoff time.Duration `json:"initial_backoff" mapstructure:"initial_backoff"`
}

// DefaultCatalogConfig returns the settings for the public DummyJSON catalog
func DefaultCatalogConfig() *CatalogConfig {
	retry := resilience.DefaultConfig()
	return &CatalogConfig{
		URL:            "https://dummyjson.com/products",
		Limit:          100,
		Timeout:        10 * time.Second,
		MaxRetries:     retry.MaxRetries,
		InitialBackoff: retry.InitialBackoff,
	}
}

// Validate validates the catalog configuration
func (c *CatalogConfig) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("catalog URL %q is not an absolute URL", c.URL)
	}
	if c.Limit < 1 {
		return fmt.Errorf("catalog limit must be at least 1, got %d", c.Limit)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("catalog timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("catalog retries cannot be negative, got %d", c.MaxRetries)
	}
	return nil
}

type catalogResponse struct {
	Products []models.ProductCatalogEntry `json:"products"`
}

// CatalogClient fetches the product catalog over HTTP
type CatalogClient struct {
	config  *CatalogConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  logger.Logger
}

// NewCatalogClient creates a client. A nil httpClient uses a client bounded
// by the configured timeout.
func NewCatalogClient(config *CatalogConfig, httpClient *http.Client) (*CatalogClient, error) {
	if config == nil {
		config = DefaultCatalogConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "catalog", config.URL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &CatalogClient{
		config:  config,
		http:    httpClient,
		breaker: resilience.NewCircuitBreaker("product-catalog"),
		logger:  logger.WithComponent("catalog_client"),
	}, nil
}

// FetchProducts retrieves up to Limit products. The whole call, retries
// included, is bounded by the configured timeout.
func (c *CatalogClient) FetchProducts(ctx context.Context) ([]models.ProductCatalogEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	endpoint, err := c.endpoint()
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "catalog-url", c.config.URL, err)
	}

	retryCfg := resilience.Config{
		MaxRetries:     c.config.MaxRetries,
		InitialBackoff: c.config.InitialBackoff,
	}

	var products []models.ProductCatalogEntry
	err = resilience.RetryWithBackoff(ctx, retryCfg, func() error {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.fetchOnce(ctx, endpoint)
		})
		if err != nil {
			c.logger.WithError(err).Debug("Catalog request failed")
			return err
		}
		products = result.([]models.ProductCatalogEntry)
		return nil
	})
	if err != nil {
		return nil, classifyFetchError(endpoint, err)
	}

	c.logger.WithFields(logger.Fields{
		"endpoint": endpoint,
		"products": len(products),
	}).Info("Fetched product catalog")
	return products, nil
}

func (c *CatalogClient) endpoint() (string, error) {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(c.config.Limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.code, http.StatusText(e.code))
}

func (c *CatalogClient) fetchOnce(ctx context.Context, endpoint string) ([]models.ProductCatalogEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		serr := &statusError{code: resp.StatusCode}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(serr)
		}
		return nil, serr
	}

	var body catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("decode catalog response: %w", err))
	}
	if body.Products == nil {
		body.Products = []models.ProductCatalogEntry{}
	}
	return body.Products, nil
}

func classifyFetchError(endpoint string, err error) *errors.AnalyticsError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return errors.NetworkError(errors.CodeTimeout, endpoint, err)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.NetworkError(errors.CodeServiceUnavailable, endpoint, err)
	}
	var serr *statusError
	if errors.As(err, &serr) && serr.code >= 500 {
		return errors.NetworkError(errors.CodeServiceUnavailable, endpoint, err)
	}
	return errors.NetworkError(errors.CodeConnectionFailed, endpoint, err)
}

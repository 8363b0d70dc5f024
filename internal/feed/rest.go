package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/turtletrader/engine/internal/indicators"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/turtletrader/engine/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RESTConfig configures a generic JSON-over-HTTP candle feed.
type RESTConfig struct {
	BaseURL string
	APIKey  string
	Retry   utils.RetryConfig
}

// DefaultRESTConfig returns the standard retry policy for transient feed
// errors.
func DefaultRESTConfig(baseURL string) RESTConfig {
	return RESTConfig{BaseURL: baseURL, Retry: utils.DefaultRetryConfig()}
}

// restBar is the wire shape returned by the candle endpoint.
type restBar struct {
	Date   string `json:"date"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

func (b restBar) toBar(symbol string) (types.Bar, error) {
	date, err := time.Parse("2006-01-02", b.Date)
	if err != nil {
		return types.Bar{}, fmt.Errorf("parse bar date %q: %w", b.Date, err)
	}

	open, err := decimal.NewFromString(b.Open)
	if err != nil {
		return types.Bar{}, fmt.Errorf("parse open: %w", err)
	}
	high, err := decimal.NewFromString(b.High)
	if err != nil {
		return types.Bar{}, fmt.Errorf("parse high: %w", err)
	}
	low, err := decimal.NewFromString(b.Low)
	if err != nil {
		return types.Bar{}, fmt.Errorf("parse low: %w", err)
	}
	closeP, err := decimal.NewFromString(b.Close)
	if err != nil {
		return types.Bar{}, fmt.Errorf("parse close: %w", err)
	}
	volume, err := decimal.NewFromString(b.Volume)
	if err != nil {
		volume = decimal.Zero
	}

	return types.Bar{
		Symbol: symbol,
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closeP,
		Volume: volume,
	}, nil
}

// RESTFeed fetches daily bars from a generic JSON candle API, validating
// every bar it returns before handing it to a caller.
type RESTFeed struct {
	logger     *zap.Logger
	config     RESTConfig
	httpClient *http.Client
	validator  *indicators.Validator
}

// NewRESTFeed builds a RESTFeed.
func NewRESTFeed(logger *zap.Logger, config RESTConfig) *RESTFeed {
	return &RESTFeed{
		logger:     logger.Named("rest-feed"),
		config:     config,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		validator:  indicators.NewValidator(logger),
	}
}

// History implements feed.DataFeed.
func (f *RESTFeed) History(ctx context.Context, symbol string, lookback int, asOf time.Time) ([]types.Bar, error) {
	endpoint := fmt.Sprintf("%s/candles/%s", f.config.BaseURL, url.PathEscape(symbol))
	q := url.Values{}
	q.Set("lookback", strconv.Itoa(lookback))
	q.Set("asOf", asOf.Format("2006-01-02"))

	body, err := utils.Retry(f.config.Retry, func() ([]byte, error) {
		return f.get(ctx, endpoint+"?"+q.Encode())
	})
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", symbol, err)
	}

	var wire []restBar
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode history for %s: %w", symbol, err)
	}

	bars := make([]types.Bar, 0, len(wire))
	for _, w := range wire {
		bar, err := w.toBar(symbol)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	if len(bars) < lookback {
		return nil, fmt.Errorf("%w: feed returned %d bars, requested %d", indicators.ErrInsufficientHistory, len(bars), lookback)
	}

	if err := f.validator.ValidateSeries(bars); err != nil {
		return nil, err
	}

	return bars, nil
}

// CurrentBar implements feed.DataFeed.
func (f *RESTFeed) CurrentBar(ctx context.Context, symbol string) (types.Bar, error) {
	endpoint := fmt.Sprintf("%s/candles/%s/current", f.config.BaseURL, url.PathEscape(symbol))

	body, err := utils.Retry(f.config.Retry, func() ([]byte, error) {
		return f.get(ctx, endpoint)
	})
	if err != nil {
		return types.Bar{}, fmt.Errorf("fetch current bar for %s: %w", symbol, err)
	}

	var wire restBar
	if err := json.Unmarshal(body, &wire); err != nil {
		return types.Bar{}, fmt.Errorf("decode current bar for %s: %w", symbol, err)
	}

	return wire.toBar(symbol)
}

// MarketSpec implements feed.DataFeed.
func (f *RESTFeed) MarketSpec(ctx context.Context, symbol string) (types.MarketSpec, error) {
	endpoint := fmt.Sprintf("%s/markets/%s", f.config.BaseURL, url.PathEscape(symbol))

	body, err := utils.Retry(f.config.Retry, func() ([]byte, error) {
		return f.get(ctx, endpoint)
	})
	if err != nil {
		return types.MarketSpec{}, fmt.Errorf("fetch market spec for %s: %w", symbol, err)
	}

	var spec types.MarketSpec
	if err := json.Unmarshal(body, &spec); err != nil {
		return types.MarketSpec{}, fmt.Errorf("decode market spec for %s: %w", symbol, err)
	}
	return spec, nil
}

func (f *RESTFeed) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.config.APIKey)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &transientHTTPError{err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &transientHTTPError{fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	return io.ReadAll(resp.Body)
}

type transientHTTPError struct{ err error }

func (e *transientHTTPError) Error() string { return "transient feed error: " + e.err.Error() }
func (e *transientHTTPError) Unwrap() error { return e.err }

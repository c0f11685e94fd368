package fetcher

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
	"unicode/utf8"

	"github.com/Zachdehooge/pothole-dashboard/internal/logger"
	"github.com/Zachdehooge/pothole-dashboard/internal/serrors"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	categoryField = "issue_sub_category"

	defaultRetryInterval = 500 * time.Millisecond
	maxErrorBody         = 200
)

// Options describes the query sent to the portal.
type Options struct {
	// BaseURL is the resource endpoint, e.g. https://data.littlerock.gov/resource/2x6n-j9fb.json.
	BaseURL string
	// Limit, Where and Order map to $limit, $where and $order. Empty Where
	// and Order are omitted.
	Limit int
	Where string
	Order string
	// CategoryLimit is the $limit of the category listing.
	CategoryLimit int
	// MaxRetries is how many times a transient failure (network error, 429,
	// 5xx) is retried after the first attempt.
	MaxRetries int
	// RetryInterval is the first backoff delay. Zero means 500ms.
	RetryInterval time.Duration
	UserAgent     string
	// AppToken is the optional Socrata application token.
	AppToken string
}

// Client queries a SODA endpoint. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	opts       Options
}

var _ Source = (*Client)(nil)

// New returns a Client that sends requests through httpClient.
func New(httpClient *http.Client, opts Options) *Client {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}
	return &Client{httpClient: httpClient, opts: opts}
}

// FetchRecords runs the configured query.
func (c *Client) FetchRecords(ctx context.Context) ([]Record, error) {
	q := url.Values{}
	q.Set("$limit", strconv.Itoa(c.opts.Limit))
	if c.opts.Where != "" {
		q.Set("$where", c.opts.Where)
	}
	if c.opts.Order != "" {
		q.Set("$order", c.opts.Order)
	}

	var records []Record
	if err := c.get(ctx, q, &records); err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	logger.Debug(ctx, "fetched records", zap.Int("count", len(records)))
	return records, nil
}

// FetchCategories groups the resource by sub-category and returns the names.
func (c *Client) FetchCategories(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("$select", categoryField)
	q.Set("$group", categoryField)
	q.Set("$limit", strconv.Itoa(c.opts.CategoryLimit))

	var rows []struct {
		SubCategory Text `json:"issue_sub_category"`
	}
	if err := c.get(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	categories := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := strings.TrimSpace(row.SubCategory.Value); row.SubCategory.Valid && name != "" {
			categories = append(categories, name)
		}
	}
	return categories, nil
}

func (c *Client) get(ctx context.Context, query url.Values, out any) error {
	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	u.RawQuery = query.Encode()
	target := u.String()

	var body []byte
	op := func() error {
		b, err := c.do(ctx, target)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.opts.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.opts.MaxRetries)), ctx) //nolint: gosec

	notify := func(err error, wait time.Duration) {
		logger.Warn(ctx, "portal request failed, retrying", zap.Error(err), zap.Duration("wait", wait))
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// do performs one attempt. Errors that should not be retried are wrapped
// with backoff.Permanent.
func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("could not create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	if c.opts.AppToken != "" {
		req.Header.Set("X-App-Token", c.opts.AppToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, serrors.Wrap(serrors.ErrUnavailable, err, "could not send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrUnavailable, err, "failed to read response body")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return b, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, serrors.With(serrors.ErrRateLimited, "API rate limited: %s", excerpt(b))
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, serrors.With(serrors.ErrUnavailable, "API returned status %d: %s", resp.StatusCode, excerpt(b))
	default:
		return nil, backoff.Permanent(
			serrors.With(serrors.ErrBadRequest, "API returned status %d: %s", resp.StatusCode, excerpt(b)))
	}
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}

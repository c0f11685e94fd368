package fetcher_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Zachdehooge/pothole-dashboard/internal/fetcher"
	"github.com/Zachdehooge/pothole-dashboard/internal/serrors"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://data.example.gov/resource/2x6n-j9fb.json"

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newClient(fn rtFunc, mutate ...func(*fetcher.Options)) *fetcher.Client {
	opts := fetcher.Options{
		BaseURL:       baseURL,
		Limit:         5000,
		Where:         "issue_sub_category like '%Pothole%' AND ticket_status = 'Open'",
		Order:         "ticket_created_date_time DESC",
		CategoryLimit: 20,
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
		UserAgent:     "pothole-dashboard/test",
	}
	for _, m := range mutate {
		m(&opts)
	}
	return fetcher.New(&http.Client{Transport: fn}, opts)
}

func TestFetchRecordsQuery(t *testing.T) {
	c := newClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "data.example.gov", r.URL.Host)
		require.Equal(t, "/resource/2x6n-j9fb.json", r.URL.Path)

		q := r.URL.Query()
		require.Equal(t, "5000", q.Get("$limit"))
		require.Equal(t, "issue_sub_category like '%Pothole%' AND ticket_status = 'Open'", q.Get("$where"))
		require.Equal(t, "ticket_created_date_time DESC", q.Get("$order"))
		require.Equal(t, "pothole-dashboard/test", r.Header.Get("User-Agent"))
		require.Empty(t, r.Header.Get("X-App-Token"))

		return respond(http.StatusOK, `[
			{"ticket_status":"Open","issue_sub_category":"Pothole","ticket_created_date_time":"2025-01-02T10:00:00.000",
			 "street_address":"1200 W MARKHAM","latitude":"34.75","longitude":"-92.28"},
			{"ticket_status":"Open","street_address":null,"latitude":"bad","longitude":"-92.1"},
			{"ticket_status":"Open","street_address":42,"latitude":34.7,"longitude":-92.3},
			{"ticket_status":"Open"}
		]`), nil
	})

	records, err := c.FetchRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)

	require.Equal(t, "Pothole", records[0].SubCategory)
	require.Equal(t, "1200 W MARKHAM", *records[0].Address())
	lat, lon, ok := records[0].Coordinates()
	require.True(t, ok)
	require.InDelta(t, 34.75, lat, 1e-9)
	require.InDelta(t, -92.28, lon, 1e-9)

	require.Nil(t, records[1].Address())
	_, _, ok = records[1].Coordinates()
	require.False(t, ok)

	require.Nil(t, records[2].Address(), "numeric address is not a string")
	_, _, ok = records[2].Coordinates()
	require.True(t, ok, "bare JSON numbers are accepted as coordinates")

	require.Nil(t, records[3].Address())
	_, _, ok = records[3].Coordinates()
	require.False(t, ok)

	addrs := fetcher.Addresses(records)
	require.Len(t, addrs, 4)
	require.Equal(t, "1200 W MARKHAM", *addrs[0])
	require.Nil(t, addrs[1])
}

func TestFetchRecordsOmitsEmptyClauses(t *testing.T) {
	c := newClient(func(r *http.Request) (*http.Response, error) {
		q := r.URL.Query()
		require.False(t, q.Has("$where"))
		require.False(t, q.Has("$order"))
		require.Equal(t, "secret", r.Header.Get("X-App-Token"))
		return respond(http.StatusOK, `[]`), nil
	}, func(o *fetcher.Options) {
		o.Where = ""
		o.Order = ""
		o.AppToken = "secret"
	})

	records, err := c.FetchRecords(context.Background())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestFetchRecordsRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newClient(func(r *http.Request) (*http.Response, error) {
		switch calls.Add(1) {
		case 1:
			return respond(http.StatusServiceUnavailable, "maintenance"), nil
		case 2:
			return respond(http.StatusTooManyRequests, "slow down"), nil
		default:
			return respond(http.StatusOK, `[{"street_address":"1 MAIN ST"}]`), nil
		}
	})

	records, err := c.FetchRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.EqualValues(t, 3, calls.Load())
}

func TestFetchRecordsGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newClient(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(http.StatusBadGateway, "upstream bad"), nil
	})

	_, err := c.FetchRecords(context.Background())
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.Contains(t, err.Error(), "upstream bad")
	require.EqualValues(t, 3, calls.Load())
}

func TestFetchRecordsRateLimited(t *testing.T) {
	c := newClient(func(r *http.Request) (*http.Response, error) {
		return respond(http.StatusTooManyRequests, "slow down"), nil
	}, func(o *fetcher.Options) { o.MaxRetries = 0 })

	_, err := c.FetchRecords(context.Background())
	require.ErrorIs(t, err, serrors.ErrRateLimited)
}

func TestFetchRecordsDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newClient(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(http.StatusBadRequest, `{"message":"query.soql.no-such-column"}`), nil
	})

	_, err := c.FetchRecords(context.Background())
	require.ErrorIs(t, err, serrors.ErrBadRequest)
	require.Contains(t, err.Error(), "no-such-column")
	require.EqualValues(t, 1, calls.Load())
}

func TestFetchRecordsTruncatesErrorBodyOnRuneBoundary(t *testing.T) {
	body := "x" + strings.Repeat("é", 150)
	c := newClient(func(r *http.Request) (*http.Response, error) {
		return respond(http.StatusBadRequest, body), nil
	})

	_, err := c.FetchRecords(context.Background())
	require.ErrorIs(t, err, serrors.ErrBadRequest)
	require.True(t, utf8.ValidString(err.Error()), "error %q", err.Error())
	require.True(t, strings.HasSuffix(err.Error(), "é..."), "error %q", err.Error())
	require.NotContains(t, err.Error(), body)
}

func TestFetchRecordsNetworkError(t *testing.T) {
	dialErr := errors.New("dial tcp: connection refused")
	c := newClient(func(r *http.Request) (*http.Response, error) {
		return nil, dialErr
	}, func(o *fetcher.Options) { o.MaxRetries = 0 })

	_, err := c.FetchRecords(context.Background())
	require.ErrorIs(t, err, serrors.ErrUnavailable)
}

func TestFetchRecordsBadJSON(t *testing.T) {
	c := newClient(func(r *http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"not":"an array"}`), nil
	})

	_, err := c.FetchRecords(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse JSON")
}

func TestFetchRecordsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newClient(func(r *http.Request) (*http.Response, error) {
		return nil, r.Context().Err()
	})

	_, err := c.FetchRecords(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchCategories(t *testing.T) {
	c := newClient(func(r *http.Request) (*http.Response, error) {
		q := r.URL.Query()
		require.Equal(t, "issue_sub_category", q.Get("$select"))
		require.Equal(t, "issue_sub_category", q.Get("$group"))
		require.Equal(t, "20", q.Get("$limit"))
		return respond(http.StatusOK, `[
			{"issue_sub_category":"Pothole Repair"},
			{"issue_sub_category":"  "},
			{"issue_sub_category":null},
			{"issue_sub_category":"Street Light Out"}
		]`), nil
	})

	categories, err := c.FetchCategories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Pothole Repair", "Street Light Out"}, categories)
}

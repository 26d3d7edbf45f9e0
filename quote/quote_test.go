package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahoo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v8/finance/chart/AAPL":
			assert.Equal(t, "1m", r.URL.Query().Get("interval"))
			fmt.Fprint(w, `{"chart":{"result":[{"meta":{"currency":"USD","regularMarketPrice":231.5,"regularMarketTime":1760000000}}],"error":null}}`)
		case "/v8/finance/chart/NONE":
			fmt.Fprint(w, `{"chart":{"result":[],"error":{"code":"Not Found"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	y := NewYahoo(srv.Client())
	y.base = srv.URL

	q, err := y.Quote(context.Background(), " aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 231.5, q.Price)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, time.Unix(1760000000, 0).UTC(), q.Time)
	assert.Equal(t, "yahoo", q.Source)

	_, err = y.Quote(context.Background(), "NONE")
	assert.ErrorIs(t, err, ErrNoQuote)

	_, err = y.Quote(context.Background(), "MISSING")
	assert.Error(t, err)

	_, err = y.Quote(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestTradegate(t *testing.T) {
	responses := map[string]string{
		"US0378331005": `{"last":198.12,"bid":198.1}`,
		"DE0007164600": `{"last":"./.","bid":"123,45"}`,
		"FR0000120271": `{"last":0,"bid":0}`,
		"XX0000000000": `{"last":{"weird":true}}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Query().Get("isin")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	p := NewTradegate(srv.Client())
	p.base = srv.URL

	q, err := p.Quote(context.Background(), "US0378331005")
	require.NoError(t, err)
	assert.Equal(t, 198.12, q.Price)
	assert.Equal(t, "EUR", q.Currency)

	q, err = p.Quote(context.Background(), "de0007164600")
	require.NoError(t, err)
	assert.Equal(t, 123.45, q.Price)

	_, err = p.Quote(context.Background(), "FR0000120271")
	assert.ErrorIs(t, err, ErrNoQuote)

	_, err = p.Quote(context.Background(), "XX0000000000")
	assert.Error(t, err)

	_, err = p.Quote(context.Background(), "UNKNOWN")
	assert.Error(t, err)
}

type countingProvider struct {
	calls atomic.Int32
	err   error
}

func (p *countingProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	p.calls.Add(1)
	if p.err != nil {
		return Quote{}, p.err
	}
	return Quote{Symbol: symbol, Price: 10}, nil
}

func TestCache(t *testing.T) {
	p := &countingProvider{}
	c := NewCache(p, time.Minute)
	now := time.Date(2025, 10, 14, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	_, err = c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestCache_DoesNotCacheErrors(t *testing.T) {
	p := &countingProvider{err: ErrNoQuote}
	c := NewCache(p, time.Minute)

	_, err := c.Quote(context.Background(), "X")
	assert.ErrorIs(t, err, ErrNoQuote)
	_, err = c.Quote(context.Background(), "X")
	assert.ErrorIs(t, err, ErrNoQuote)
	assert.Equal(t, int32(2), p.calls.Load())
}

type mapProvider map[string]float64

func (m mapProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	price, ok := m[symbol]
	if !ok {
		return Quote{}, errors.New("unknown")
	}
	return Quote{Symbol: symbol, Price: price}, nil
}

func TestQuotes(t *testing.T) {
	quotes, errs := Quotes(context.Background(), mapProvider{"A": 1, "B": 2}, []string{"A", "B", "c"})
	assert.Len(t, quotes, 2)
	assert.Equal(t, 2.0, quotes["B"].Price)
	assert.Contains(t, errs, "C")
}

func TestNew(t *testing.T) {
	p, err := New("yahoo", nil)
	require.NoError(t, err)
	assert.IsType(t, &Yahoo{}, p)

	p, err = New("tradegate", nil)
	require.NoError(t, err)
	assert.IsType(t, &Tradegate{}, p)

	_, err = New("bloomberg", nil)
	assert.Error(t, err)
}

package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Yahoo is a Yahoo Finance v8 chart provider.
type Yahoo struct {
	client *http.Client
	base   string
}

// NewYahoo creates a Yahoo provider.
func NewYahoo(client *http.Client) *Yahoo {
	return &Yahoo{client: client, base: "https://query2.finance.yahoo.com"}
}

// Quote returns the regular market price of symbol.
func (y *Yahoo) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = normalize(symbol)
	if symbol == "" {
		return Quote{}, fmt.Errorf("empty symbol: %w", ErrNoQuote)
	}
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", y.base, url.PathEscape(symbol))

	var jobj any
	if err := jwget(ctx, y.client, addr, &jobj); err != nil {
		return Quote{}, fmt.Errorf("error retrieving %q: %w", symbol, err)
	}

	jval, err := jget("$.chart.result[0].meta.regularMarketPrice", jobj)
	if err != nil {
		return Quote{}, fmt.Errorf("%q: %w", symbol, ErrNoQuote)
	}
	price, ok := jval.(float64)
	if !ok || price <= 0 {
		return Quote{}, fmt.Errorf("%q: invalid price %v: %w", symbol, jval, ErrNoQuote)
	}

	q := Quote{Symbol: symbol, Price: price, Source: "yahoo", Time: time.Now()}
	if cur, err := jget("$.chart.result[0].meta.currency", jobj); err == nil {
		q.Currency, _ = cur.(string)
	}
	if ts, err := jget("$.chart.result[0].meta.regularMarketTime", jobj); err == nil {
		if sec, ok := ts.(float64); ok && sec > 0 {
			q.Time = time.Unix(int64(sec), 0).UTC()
		}
	}
	return q, nil
}

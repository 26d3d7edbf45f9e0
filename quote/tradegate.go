package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Tradegate quotes ISINs from the tradegate exchange. Prices are in EUR.
type Tradegate struct {
	client *http.Client
	base   string
}

// NewTradegate creates a Tradegate provider.
func NewTradegate(client *http.Client) *Tradegate {
	return &Tradegate{client: client, base: "https://www.tradegate.de"}
}

// Quote returns the last price exchanged for an ISIN, or the bid when there
// was no exchange yet.
func (t *Tradegate) Quote(ctx context.Context, isin string) (Quote, error) {
	isin = normalize(isin)
	if isin == "" {
		return Quote{}, fmt.Errorf("empty isin: %w", ErrNoQuote)
	}
	addr := t.base + "/refresh.php?isin=" + url.QueryEscape(isin)

	var jobj any
	if err := jwget(ctx, t.client, addr, &jobj); err != nil {
		return Quote{}, fmt.Errorf("error retrieving %q: %w", isin, err)
	}

	// last is the last transaction, moves slower than the bid, but the bid can be 0.
	jval, err := jget("$.last", jobj)
	if s, ok := jval.(string); err != nil || (ok && s == "./.") {
		// tradegate shows an empty last this way, use the bid instead
		jval, err = jget("$.bid", jobj)
	}
	if err != nil {
		return Quote{}, fmt.Errorf("%q: %w", isin, ErrNoQuote)
	}
	price, err := parsePrice(jval)
	if err != nil {
		return Quote{}, fmt.Errorf("cannot read value from %q: %w", isin, err)
	}
	if price == 0 {
		return Quote{}, fmt.Errorf("empty bid for %s: %w", isin, ErrNoQuote)
	}
	return Quote{Symbol: isin, Price: price, Currency: "EUR", Time: time.Now(), Source: "tradegate"}, nil
}

// parsePrice reads a price either as a number or as a string with a decimal comma.
func parsePrice(jval any) (float64, error) {
	switch v := jval.(type) {
	case float64:
		return v, nil
	case string:
		s := strings.ReplaceAll(v, ",", ".")
		s = strings.ReplaceAll(s, " ", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid string %q: %w", v, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("neither a float or string: %v", jval)
	}
}

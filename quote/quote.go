// Package quote fetches the latest market price of a symbol.
package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// ErrNoQuote is returned when a provider has no price for a symbol.
var ErrNoQuote = errors.New("no quote")

// Quote is the latest known price of a symbol.
type Quote struct {
	Symbol   string    `json:"symbol"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency,omitempty"`
	Time     time.Time `json:"time"`
	Source   string    `json:"source"`
}

// Provider returns quotes.
type Provider interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// New returns the provider of this kind: "yahoo" or "tradegate".
func New(kind string, client *http.Client) (Provider, error) {
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	switch kind {
	case "yahoo", "":
		return NewYahoo(client), nil
	case "tradegate":
		return NewTradegate(client), nil
	default:
		return nil, fmt.Errorf("unknown quote provider %q", kind)
	}
}

// normalize returns the canonical form of a symbol.
func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// jwget performs an HTTP GET request and unmarshals the JSON response into the provided data structure.
func jwget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "tradebook/1.0")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}

// jget returns the value at path in a decoded json document.
func jget(path string, jobj any) (any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, err
	}
	// jsonpath either returns a list of 1 answer, or a single answer: keep the first one if any.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return nil, fmt.Errorf("%s: empty result", path)
		}
		jval = jlist[0]
	}
	return jval, nil
}

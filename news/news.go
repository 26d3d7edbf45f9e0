// Package news aggregates RSS and Atom feeds into a single, recent-first list.
package news

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Item is a news headline.
type Item struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	GUID      string    `json:"guid,omitempty"`
	Source    string    `json:"source"`
	Summary   string    `json:"summary,omitempty"`
	Published time.Time `json:"published"`
}

// id returns the identity of the item used for deduplication.
func (i Item) id() string {
	if i.Link != "" {
		return i.Link
	}
	return i.GUID
}

// Fetcher fetches the items of a single feed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]Item, error)
}

// maxSummary is the maximum number of runes kept from a feed description.
const maxSummary = 280

// FeedFetcher fetches feeds over http with gofeed.
type FeedFetcher struct {
	parser *gofeed.Parser
}

// NewFeedFetcher creates a FeedFetcher. A nil client uses a client with a 30s timeout.
func NewFeedFetcher(client *http.Client) *FeedFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	p := gofeed.NewParser()
	p.Client = client
	p.UserAgent = "tradebook/1.0"
	return &FeedFetcher{parser: p}
}

// Fetch downloads and parses the feed at url.
func (f *FeedFetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", url, err)
	}

	source := feed.Title
	if source == "" {
		source = url
	}
	items := make([]Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		it := Item{
			Title:   strings.TrimSpace(fi.Title),
			Link:    strings.TrimSpace(fi.Link),
			GUID:    fi.GUID,
			Source:  source,
			Summary: plainText(fi.Description),
		}
		switch {
		case fi.PublishedParsed != nil:
			it.Published = fi.PublishedParsed.UTC()
		case fi.UpdatedParsed != nil:
			it.Published = fi.UpdatedParsed.UTC()
		}
		if it.id() == "" {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// plainText strips the html markup of a feed description and truncates it.
func plainText(html string) string {
	if html == "" {
		return ""
	}
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > maxSummary {
		r := []rune(text)
		text = strings.TrimSpace(string(r[:maxSummary])) + "…"
	}
	return text
}

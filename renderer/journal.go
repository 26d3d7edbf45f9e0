package renderer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/news"
	"github.com/etnz/tradebook/quote"
)

// NotesMarkdown renders the list of notes, most recently updated first.
func NotesMarkdown(notes []tradebook.Note) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Notes\n\n")
	if len(notes) == 0 {
		fmt.Fprint(&b, "No notes.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| ID | Title | Tags | Updated |")
	fmt.Fprintln(&b, "|:---|:---|:---|:---|")
	for _, n := range notes {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			n.ID, cell(n.Title), cell(strings.Join(n.Tags, ", ")), n.Updated.Format("2006-01-02 15:04"))
	}
	return b.String()
}

// NoteMarkdown renders a single note with its body.
func NoteMarkdown(n tradebook.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", n.Title)
	if len(n.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n\n", strings.Join(n.Tags, ", "))
	}
	fmt.Fprintln(&b, n.Body)
	return b.String()
}

// DiaryMarkdown renders diary entries as sections, one per day.
func DiaryMarkdown(diaries []tradebook.Diary) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Diary\n\n")
	if len(diaries) == 0 {
		fmt.Fprint(&b, "No entries.\n")
		return b.String()
	}
	for _, d := range diaries {
		fmt.Fprintf(&b, "## %s\n\n", d.Date)
		if d.Mood != "" {
			fmt.Fprintf(&b, "Mood: %s\n\n", d.Mood)
		}
		fmt.Fprintf(&b, "%s\n\n", d.Body)
	}
	return b.String()
}

// NewsMarkdown renders news items as a list of links.
func NewsMarkdown(items []news.Item) string {
	var b strings.Builder
	fmt.Fprint(&b, "# News\n\n")
	if len(items) == 0 {
		fmt.Fprint(&b, "No news.\n")
		return b.String()
	}
	for _, it := range items {
		fmt.Fprintf(&b, "- [%s](%s) %s, %s\n", it.Title, it.Link, it.Source, it.Published.Format("2006-01-02 15:04"))
		if it.Summary != "" {
			fmt.Fprintf(&b, "  %s\n", it.Summary)
		}
	}
	return b.String()
}

// QuotesMarkdown renders quotes in the order of symbols. Missing quotes show their error.
func QuotesMarkdown(symbols []string, quotes map[string]quote.Quote, errs map[string]error) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Quotes\n\n")
	fmt.Fprintln(&b, "| Symbol | Price | Currency | Time | Source |")
	fmt.Fprintln(&b, "|:---|---:|:---|:---|:---|")
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if q, ok := quotes[s]; ok {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", s, strconv.FormatFloat(q.Price, 'f', -1, 64), cell(q.Currency), q.Time.Format("2006-01-02 15:04"), q.Source)
			continue
		}
		msg := "no quote"
		if err, ok := errs[s]; ok {
			msg = err.Error()
		}
		fmt.Fprintf(&b, "| %s | - | - | - | %s |\n", s, cell(msg))
	}
	return b.String()
}

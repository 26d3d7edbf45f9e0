package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/config"
	"github.com/etnz/tradebook/renderer"
	"github.com/etnz/tradebook/store"
)

// withStore opens the app store and calls f with it.
func withStore(f func(cfg *config.Config, kv store.KV) subcommands.ExitStatus) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return failf("%v", err)
	}
	kv, err := openStore(cfg)
	if err != nil {
		return failf("could not open store: %v", err)
	}
	defer kv.Close()
	return f(cfg, kv)
}

// splitList splits a comma separated flag value.
func splitList(v string) []string {
	var res []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			res = append(res, s)
		}
	}
	return res
}

// --- Note Command ---

type noteCmd struct {
	id     string
	title  string
	body   string
	tags   string
	show   string
	remove string
}

func (*noteCmd) Name() string     { return "note" }
func (*noteCmd) Synopsis() string { return "write, show or remove a study note" }
func (*noteCmd) Usage() string {
	return `tb note -t <title> [-m <body>] [-tags <a,b>] [-id <id>]
tb note -show <id>
tb note -rm <id>

  Saves a note. Use -id to update an existing note, its creation time is kept.
`
}
func (c *noteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Id of the note to update")
	f.StringVar(&c.title, "t", "", "Title of the note")
	f.StringVar(&c.body, "m", "", "Body of the note, markdown")
	f.StringVar(&c.tags, "tags", "", "Comma separated tags")
	f.StringVar(&c.show, "show", "", "Id of the note to display")
	f.StringVar(&c.remove, "rm", "", "Id of the note to remove")
}
func (c *noteCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withStore(func(_ *config.Config, kv store.KV) subcommands.ExitStatus {
		switch {
		case c.show != "":
			n, err := tradebook.GetNote(kv, c.show)
			if err != nil {
				return failf("%v", err)
			}
			printMarkdown(renderer.NoteMarkdown(n))

		case c.remove != "":
			if err := tradebook.DeleteNote(kv, c.remove); err != nil {
				return failf("%v", err)
			}
			fmt.Fprintf(stdout, "Removed note %s\n", c.remove)

		case c.title != "":
			n, err := tradebook.SaveNote(kv, tradebook.Note{ID: c.id, Title: c.title, Body: c.body, Tags: splitList(c.tags)})
			if err != nil {
				return failf("%v", err)
			}
			fmt.Fprintf(stdout, "Saved note %s\n", n.ID)

		default:
			f.Usage()
			return subcommands.ExitUsageError
		}
		return subcommands.ExitSuccess
	})
}

// --- Notes Command ---

type notesCmd struct {
	tag string
}

func (*notesCmd) Name() string     { return "notes" }
func (*notesCmd) Synopsis() string { return "list the study notes" }
func (*notesCmd) Usage() string {
	return `tb notes [-tag <tag>]

  Lists the notes, most recently updated first.
`
}
func (c *notesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tag, "tag", "", "Only list the notes with this tag")
}
func (c *notesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withStore(func(_ *config.Config, kv store.KV) subcommands.ExitStatus {
		notes, err := tradebook.ListNotes(kv, c.tag)
		if err != nil {
			return failf("%v", err)
		}
		printMarkdown(renderer.NotesMarkdown(notes))
		return subcommands.ExitSuccess
	})
}

// --- Diary Command ---

type diaryCmd struct {
	date  string
	mood  string
	body  string
	tags  string
	month string
}

func (*diaryCmd) Name() string     { return "diary" }
func (*diaryCmd) Synopsis() string { return "write or read the trading diary" }
func (*diaryCmd) Usage() string {
	return `tb diary [-d <date>] -m <body> [-mood <mood>] [-tags <a,b>]
tb diary [-month YYYY-MM]

  Writes the diary entry of a day, replacing any previous entry of that day.
  Without -m, displays the entries of a month, the current one by default.
`
}
func (c *diaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", tradebook.Today().String(), "Date of the entry")
	f.StringVar(&c.mood, "mood", "", "Mood of the day, e.g. calm or fearful")
	f.StringVar(&c.body, "m", "", "Body of the entry")
	f.StringVar(&c.tags, "tags", "", "Comma separated tags")
	f.StringVar(&c.month, "month", "", "Month to display (YYYY-MM), all months with 'all'")
}
func (c *diaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, err := tradebook.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	return withStore(func(_ *config.Config, kv store.KV) subcommands.ExitStatus {
		if c.body != "" {
			d := tradebook.Diary{Date: day, Mood: c.mood, Body: c.body, Tags: splitList(c.tags)}
			if err := tradebook.SaveDiary(kv, d); err != nil {
				return failf("%v", err)
			}
			fmt.Fprintf(stdout, "Saved diary of %s\n", day)
			return subcommands.ExitSuccess
		}

		month := c.month
		switch month {
		case "":
			month = day.MonthKey()
		case "all":
			month = ""
		}
		diaries, err := tradebook.ListDiaries(kv, month)
		if err != nil {
			return failf("%v", err)
		}
		printMarkdown(renderer.DiaryMarkdown(diaries))
		return subcommands.ExitSuccess
	})
}

// --- Settings Command ---

type settingsCmd struct {
	currency  string
	feeds     string
	watchlist string
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "display or change the preferences" }
func (*settingsCmd) Usage() string {
	return `tb settings [-currency <code>] [-feeds <url,url>] [-watchlist <symbol,symbol>]

  Changes the given preferences, then displays them all.
`
}
func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "ISO 4217 code of the display currency")
	f.StringVar(&c.feeds, "feeds", "", "Comma separated RSS feed URLs")
	f.StringVar(&c.watchlist, "watchlist", "", "Comma separated quote symbols")
}
func (c *settingsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withStore(func(cfg *config.Config, kv store.KV) subcommands.ExitStatus {
		s, err := loadSettings(cfg, kv)
		if err != nil {
			return failf("%v", err)
		}
		changed := false
		f.Visit(func(fl *flag.Flag) {
			changed = true
			switch fl.Name {
			case "currency":
				s.Currency = c.currency
			case "feeds":
				s.Feeds = splitList(c.feeds)
			case "watchlist":
				s.Watchlist = splitList(c.watchlist)
			}
		})
		if changed {
			if err := tradebook.SaveSettings(kv, s); err != nil {
				return failf("%v", err)
			}
			if s, err = loadSettings(cfg, kv); err != nil {
				return failf("%v", err)
			}
		}

		var b strings.Builder
		fmt.Fprint(&b, "# Settings\n\n")
		fmt.Fprintln(&b, "| Setting | Value |")
		fmt.Fprintln(&b, "|:---|:---|")
		fmt.Fprintf(&b, "| Currency | %s |\n", s.Currency)
		fmt.Fprintf(&b, "| Feeds | %s |\n", strings.Join(s.Feeds, "<br>"))
		fmt.Fprintf(&b, "| Watchlist | %s |\n", strings.Join(s.Watchlist, ", "))
		printMarkdown(b.String())
		return subcommands.ExitSuccess
	})
}

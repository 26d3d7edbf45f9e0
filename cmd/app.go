// Package cmd implements the CLI application to keep a trading journal.
package cmd

import (
	"cmp"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/config"
	"github.com/etnz/tradebook/logger"
	"github.com/etnz/tradebook/store"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&buyCmd{}, "records")
	c.Register(&sellCmd{}, "records")
	c.Register(&roundtripCmd{}, "records")
	c.Register(&editCmd{}, "records")
	c.Register(&rmCmd{}, "records")
	c.Register(&fmtCmd{}, "records")
	c.Register(&logCmd{}, "records")

	c.Register(&positionsCmd{}, "reports")
	c.Register(&monthlyCmd{}, "reports")
	c.Register(&roundtripsCmd{}, "reports")
	c.Register(&summaryCmd{}, "reports")
	c.Register(&exportCmd{}, "reports")

	c.Register(&noteCmd{}, "journal")
	c.Register(&notesCmd{}, "journal")
	c.Register(&diaryCmd{}, "journal")
	c.Register(&settingsCmd{}, "journal")

	c.Register(&quoteCmd{}, "market")
	c.Register(&newsCmd{}, "market")
	c.Register(&serveCmd{}, "market")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	bookFile = flag.String("book", "", "Path to the book file (JSONL format). Defaults to TB_BOOK_FILE.")
	dataDir  = flag.String("data", "", "Path to the data folder. Defaults to TB_DATA_DIR.")
	raw      = flag.Bool("raw", false, "Print reports as raw markdown")
)

// stdout receives the reports.
var stdout io.Writer = os.Stdout

// loadConfig loads the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
		if os.Getenv("TB_BOOK_FILE") == "" {
			cfg.BookFile = filepath.Join(cfg.DataDir, "book.jsonl")
		}
	}
	cfg.BookFile = cmp.Or(*bookFile, cfg.BookFile)
	return cfg, nil
}

// newLogger returns the logger for warnings of the CLI.
func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})
}

// DecodeBook loads the book configured for the app.
func DecodeBook(cfg *config.Config) (*tradebook.Book, error) {
	if _, err := os.Stat(cfg.BookFile); errors.Is(err, fs.ErrNotExist) {
		log := newLogger(cfg)
		log.Warn().Str("book", cfg.BookFile).Msg("book does not exist, starting an empty one")
	}
	return tradebook.LoadBook(cfg.BookFile)
}

// EncodeBook saves the book configured for the app.
func EncodeBook(cfg *config.Config, b *tradebook.Book) error {
	return tradebook.SaveBook(cfg.BookFile, b)
}

// openStore opens the key-value store of notes, diaries and settings.
func openStore(cfg *config.Config) (store.KV, error) {
	return store.Open(cfg.Store, cfg.DataDir)
}

// loadSettings reads the saved settings. TB_CURRENCY is the currency until one is saved.
func loadSettings(cfg *config.Config, kv tradebook.KV) (tradebook.Settings, error) {
	def := tradebook.DefaultSettings()
	def.Currency = cmp.Or(cfg.Currency, def.Currency)
	if len(cfg.NewsFeeds) > 0 {
		def.Feeds = cfg.NewsFeeds
	}
	return tradebook.LoadSettingsWith(kv, def)
}

// currency returns the display currency, falling back to the configured one
// when the store cannot be opened.
func currency(cfg *config.Config) string {
	kv, err := openStore(cfg)
	if err != nil {
		return cfg.Currency
	}
	defer kv.Close()
	s, err := loadSettings(cfg, kv)
	if err != nil {
		return cfg.Currency
	}
	return s.Currency
}

// printMarkdown renders markdown for the terminal.
func printMarkdown(md string) {
	if *raw {
		fmt.Fprint(stdout, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}

// parseQuantity parses a decimal flag value.
func parseQuantity(name, v string) (tradebook.Quantity, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return tradebook.Quantity{}, fmt.Errorf("invalid -%s %q: %w", name, v, err)
	}
	return tradebook.Q(d), nil
}

// parseMoney parses a decimal flag value.
func parseMoney(name, v string) (tradebook.Money, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return tradebook.Money{}, fmt.Errorf("invalid -%s %q: %w", name, v, err)
	}
	return tradebook.M(d), nil
}

// failf prints an error and returns the failure status.
func failf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

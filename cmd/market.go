package cmd

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"github.com/etnz/tradebook/config"
	"github.com/etnz/tradebook/logger"
	"github.com/etnz/tradebook/news"
	"github.com/etnz/tradebook/quote"
	"github.com/etnz/tradebook/renderer"
	"github.com/etnz/tradebook/server"
	"github.com/etnz/tradebook/store"
)

// httpClient is shared by the market commands.
var httpClient = &http.Client{Timeout: 10 * time.Second}

// quoteProvider returns the configured provider behind a cache.
func quoteProvider(cfg *config.Config) (*quote.Cache, error) {
	p, err := quote.New(cfg.QuoteProvider, httpClient)
	if err != nil {
		return nil, err
	}
	return quote.NewCache(p, cfg.QuoteTTL), nil
}

// --- Quote Command ---

type quoteCmd struct {
	provider string
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "display the latest price of symbols" }
func (*quoteCmd) Usage() string {
	return `tb quote [-provider yahoo|tradegate] [<symbol>...]

  Fetches the latest price of the symbols, or of the watchlist when no symbol
  is given. Tradegate symbols are ISINs.
`
}
func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.provider, "provider", "", "Quote provider. Defaults to TB_QUOTE_PROVIDER.")
}
func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withStore(func(cfg *config.Config, kv store.KV) subcommands.ExitStatus {
		symbols := f.Args()
		if len(symbols) == 0 {
			s, err := loadSettings(cfg, kv)
			if err != nil {
				return failf("%v", err)
			}
			symbols = s.Watchlist
		}
		if len(symbols) == 0 {
			fmt.Fprintln(os.Stderr, "no symbols given and the watchlist is empty")
			return subcommands.ExitUsageError
		}
		if c.provider != "" {
			cfg.QuoteProvider = c.provider
		}
		p, err := quoteProvider(cfg)
		if err != nil {
			return failf("%v", err)
		}

		quotes, errs := quote.Quotes(ctx, p, symbols)
		printMarkdown(renderer.QuotesMarkdown(symbols, quotes, errs))
		if len(quotes) == 0 {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	})
}

// --- News Command ---

type newsCmd struct {
	limit int
}

func (*newsCmd) Name() string     { return "news" }
func (*newsCmd) Synopsis() string { return "display the latest market news" }
func (*newsCmd) Usage() string {
	return `tb news [-n <count>]

  Fetches the news feeds of the settings and displays the most recent items.
`
}
func (c *newsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 20, "Number of items to display, 0 for all")
}
func (c *newsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withStore(func(cfg *config.Config, kv store.KV) subcommands.ExitStatus {
		s, err := loadSettings(cfg, kv)
		if err != nil {
			return failf("%v", err)
		}
		agg := news.NewAggregator(news.NewFeedFetcher(httpClient), s.Feeds, cfg.NewsMaxItems, newLogger(cfg))
		if err := agg.Refresh(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		printMarkdown(renderer.NewsMarkdown(agg.Items(c.limit)))
		return subcommands.ExitSuccess
	})
}

// --- Serve Command ---

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the journal over HTTP" }
func (*serveCmd) Usage() string {
	return `tb serve [-addr <host:port>]

  Serves the book reports, the records, the notes, the news and the quotes as
  a JSON API. News feeds are refreshed on TB_NEWS_SCHEDULE. Stops on SIGINT
  or SIGTERM.
`
}
func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address. Defaults to TB_ADDR.")
}
func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withStore(func(cfg *config.Config, kv store.KV) subcommands.ExitStatus {
		log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
		logger.SetGlobalLogger(log)

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := loadSettings(cfg, kv)
		if err != nil {
			return failf("%v", err)
		}
		quotes, err := quoteProvider(cfg)
		if err != nil {
			return failf("%v", err)
		}

		agg := news.NewAggregator(news.NewFeedFetcher(httpClient), s.Feeds, cfg.NewsMaxItems, log)
		go func() {
			if err := agg.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("initial news refresh")
			}
		}()
		sched := news.NewScheduler(log)
		if err := sched.AddJob(cfg.NewsSchedule, news.RefreshJob{Aggregator: agg}); err != nil {
			return failf("invalid TB_NEWS_SCHEDULE %q: %v", cfg.NewsSchedule, err)
		}
		sched.Start()
		defer sched.Stop()

		srv := server.New(server.Config{
			Log:            log,
			Addr:           cmp.Or(c.addr, cfg.Addr),
			BookFile:       cfg.BookFile,
			Store:          kv,
			News:           agg,
			Quotes:         quotes,
			RequestTimeout: cfg.RequestTimeout,
		})

		if err := srv.Run(ctx); err != nil {
			return failf("%v", err)
		}
		return subcommands.ExitSuccess
	})
}

// Package cmd implements the capshill command line application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/capitoltrades"
	"github.com/sumiran35/capitol-shill/enrich"
	"github.com/sumiran35/capitol-shill/pipeline"
	"github.com/sumiran35/capitol-shill/store"
)

// Commands lists the subcommands of the application.
var Commands = []subcommands.Command{
	&syncCmd{},
	&showCmd{},
	&tradesCmd{},
	&serveCmd{},
	&copyCmd{},
	&topicCmd{},
}

const (
	EnvStore        = "CAPSHILL_STORE"
	EnvBaseURL      = "CAPSHILL_BASE_URL"
	EnvMaxPages     = "CAPSHILL_MAX_PAGES"
	EnvLookbackDays = "CAPSHILL_LOOKBACK_DAYS"
	EnvCacheTTL     = "CAPSHILL_CACHE_TTL"
	EnvQuoteURL     = "CAPSHILL_QUOTE_URL"
	EnvAddr         = "CAPSHILL_ADDR"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	storeFlag    = flag.String("store", "", "Store of the trades history, a csv path, sqlite:<path> or postgres:// url (env "+EnvStore+").")
	baseURLFlag  = flag.String("base-url", "", "Listing to crawl (env "+EnvBaseURL+").")
	maxPagesFlag = flag.Int("max-pages", 0, "Maximum number of listing pages per sync (env "+EnvMaxPages+").")
	// Verbose logs every skipped row.
	Verbose = flag.Bool("v", false, "Verbose logging.")
)

// Config is the application configuration.
type Config struct {
	Store        string
	BaseURL      string
	MaxPages     int
	LookbackDays int
	CacheTTL     time.Duration
	QuoteURL     string
	Addr         string
	CacheDir     string // disk cache of the quote service
}

var loadEnv = sync.OnceFunc(func() {
	// a missing .env is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning, could not load .env: %v", err)
	}
})

// LoadConfig reads the configuration from the environment, and the .env file,
// then applies the global flags.
func LoadConfig() Config {
	loadEnv()
	c := Config{
		Store:        getEnv(EnvStore, store.DefaultPath),
		BaseURL:      getEnv(EnvBaseURL, capitoltrades.DefaultBaseURL),
		MaxPages:     getEnvAsInt(EnvMaxPages, capitoltrades.DefaultMaxPages),
		LookbackDays: getEnvAsInt(EnvLookbackDays, capitol.DefaultLookback),
		CacheTTL:     getEnvAsDuration(EnvCacheTTL, pipeline.DefaultTTL),
		QuoteURL:     getEnv(EnvQuoteURL, enrich.DefaultQuoteURL),
		Addr:         getEnv(EnvAddr, ":8080"),
	}
	if *storeFlag != "" {
		c.Store = *storeFlag
	}
	if *baseURLFlag != "" {
		c.BaseURL = *baseURLFlag
	}
	if *maxPagesFlag > 0 {
		c.MaxPages = *maxPagesFlag
	}
	if dir, err := os.UserCacheDir(); err == nil {
		c.CacheDir = filepath.Join(dir, "capshill")
	} else {
		c.CacheDir = filepath.Join(os.TempDir(), "capshill")
	}
	return c
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil && value > 0 {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback)
	return fallback
}

// App holds the components wired from a Config.
type App struct {
	Config   Config
	Store    store.Store
	Lock     *store.Lock
	Syncer   *capitol.Syncer
	Pipeline *pipeline.Pipeline
}

// Open opens the store of c and wires the sync pipeline on it.
func Open(ctx context.Context, c Config) (*App, error) {
	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, fmt.Errorf("cannot open store %q: %w", c.Store, err)
	}
	src := capitoltrades.NewSource(c.BaseURL)
	src.Crawler.MaxPages = c.MaxPages
	src.Crawler.Verbose = *Verbose

	a := &App{
		Config: c,
		Store:  st,
		Lock:   store.LockFor(c.Store),
		Syncer: &capitol.Syncer{Store: st, Source: src, Lookback: c.LookbackDays},
	}
	// a sync holds the lock for its whole crawl, plus the load and save.
	a.Lock.TTL = max(a.Lock.TTL, src.MaxDuration()+10*time.Minute)
	e := &enrich.Enricher{Lookup: enrich.NewYahoo(c.QuoteURL, c.CacheDir, 2)}
	a.Pipeline = pipeline.New(a.Syncer, a.Lock, e, c.CacheTTL)
	return a, nil
}

// Close releases the store.
func (a *App) Close() error { return a.Store.Close() }

// openApp opens the App of the current configuration, or prints why it cannot.
func openApp(ctx context.Context) (*App, bool) {
	a, err := Open(ctx, LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, false
	}
	return a, true
}

// printMarkdown renders md for the terminal, or prints it as is when it cannot.
func printMarkdown(md string) { _ = writeMarkdown(os.Stdout, md) }

// writeMarkdown renders md to w.
func writeMarkdown(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		_, err = io.WriteString(w, md)
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		_, err = io.WriteString(w, md)
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

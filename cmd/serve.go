package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/subcommands"

	capitol "github.com/sumiran35/capitol-shill"
	"github.com/sumiran35/capitol-shill/date"
	"github.com/sumiran35/capitol-shill/enrich"
	"github.com/sumiran35/capitol-shill/pipeline"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the trades over http" }
func (*serveCmd) Usage() string {
	return `capshill serve [-addr <addr>]

  Serves the trades history as json. See 'capshill topic serve'.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Address to listen on (env "+EnvAddr+").")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, ok := openApp(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer app.Close()

	addr := app.Config.Addr
	if c.addr != "" {
		addr = c.addr
	}
	server := &http.Server{
		Addr:        addr,
		Handler:     NewRouter(app.Pipeline, date.Today),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// no WriteTimeout: a request may wait for a whole crawl.
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdown)
	}()

	log.Printf("serve-start addr=%s store=%s", addr, app.Config.Store)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("serve-error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// NewRouter returns the http api over p.
func NewRouter(p *pipeline.Pipeline, today func() date.Date) http.Handler {
	h := &handler{p: p, today: today}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/trades", h.trades)
	r.Get("/summary", h.summary)
	r.Get("/tickers/{ticker}", h.ticker)
	return r
}

type handler struct {
	p     *pipeline.Pipeline
	today func() date.Date
}

// tradesResponse is the body of the trades endpoints.
type tradesResponse struct {
	RunID   string          `json:"run_id"`
	Warning string          `json:"warning,omitempty"`
	Count   int             `json:"count"`
	Trades  []capitol.Trade `json:"trades"`
}

// tickerResponse is the body of the ticker endpoint, with the issuer metadata when it was looked up.
type tickerResponse struct {
	tradesResponse
	Metadata *enrich.Metadata `json:"metadata,omitempty"`
}

// summaryResponse is the body of the summary endpoint.
type summaryResponse struct {
	RunID   string `json:"run_id"`
	Warning string `json:"warning,omitempty"`
	capitol.Summary
}

func (h *handler) data(w http.ResponseWriter, r *http.Request) (pipeline.Result, bool) {
	res, err := h.p.Data(r.Context())
	if err != nil {
		log.Printf("serve-data-error request=%s: %v", middleware.GetReqID(r.Context()), err)
		sendJSONError(w, "trades are not available", http.StatusServiceUnavailable)
		return res, false
	}
	return res, true
}

func (h *handler) trades(w http.ResponseWriter, r *http.Request) {
	res, ok := h.data(w, r)
	if !ok {
		return
	}
	trades := queryFilter(r).Apply(res.Trades)
	sendJSON(w, http.StatusOK, tradesResponse{RunID: res.RunID, Warning: res.Warning, Count: len(trades), Trades: trades})
}

func (h *handler) ticker(w http.ResponseWriter, r *http.Request) {
	res, ok := h.data(w, r)
	if !ok {
		return
	}
	f := capitol.Filter{Ticker: strings.ToUpper(chi.URLParam(r, "ticker"))}
	trades := f.Apply(res.Trades)
	if len(trades) == 0 {
		sendJSONError(w, "no trades for "+f.Ticker, http.StatusNotFound)
		return
	}
	body := tickerResponse{tradesResponse: tradesResponse{RunID: res.RunID, Warning: res.Warning, Count: len(trades), Trades: trades}}
	if m, ok := res.Metadata[f.Ticker]; ok {
		body.Metadata = &m
	}
	sendJSON(w, http.StatusOK, body)
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	res, ok := h.data(w, r)
	if !ok {
		return
	}
	s := capitol.Summarize(res.Trades, queryFilter(r), h.today())
	sendJSON(w, http.StatusOK, summaryResponse{RunID: res.RunID, Warning: res.Warning, Summary: s})
}

// queryFilter reads the senator, sector and ticker query parameters, repeated or comma separated.
func queryFilter(r *http.Request) capitol.Filter {
	q := r.URL.Query()
	var f capitol.Filter
	for _, v := range q["senator"] {
		f.Senators = append(f.Senators, splitList(v)...)
	}
	for _, v := range q["sector"] {
		f.Sectors = append(f.Sectors, splitList(v)...)
	}
	f.Ticker = strings.ToUpper(strings.TrimSpace(q.Get("ticker")))
	return f
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("serve-encode-error: %v", err)
	}
}

func sendJSONError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, map[string]string{"error": message})
}

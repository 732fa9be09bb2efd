// pulsed is the prediction-market dashboard daemon. It hydrates tracked
// events from the Gamma API, patches them live from the CLOB market feed,
// and serves ranked outcome summaries over HTTP and WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/polypulse/polymarket-pulse/pkg/book"
	"github.com/polypulse/polymarket-pulse/pkg/feed"
	"github.com/polypulse/polymarket-pulse/pkg/gamma"
	"github.com/polypulse/polymarket-pulse/pkg/markets"
	"github.com/polypulse/polymarket-pulse/pkg/metrics"
	"github.com/polypulse/polymarket-pulse/pkg/store"
	"github.com/polypulse/polymarket-pulse/pkg/stream"
)

// .env is optional and must be in the environment before the flag
// defaults below are computed.
var _ = godotenv.Load()

var (
	// Flags
	httpAddr    = flag.String("http", envOr("PULSE_HTTP_ADDR", ":8080"), "HTTP server address")
	tag         = flag.String("tag", envOr("PULSE_TAG", ""), "Gamma tag slug to track (empty = all tradeable)")
	maxEvents   = flag.Int("max-events", 50, "Maximum events to track")
	refreshMins = flag.Int("refresh", 10, "Re-hydration interval in minutes")
	timeframe   = flag.String("timeframe", envOr("PULSE_TIMEFRAME", "1D"), "Change timeframe: 1H, 6H, 1D, 1W, 1M, ALL")
	feedURL     = flag.String("feed-url", envOr("PULSE_FEED_URL", feed.DefaultURL), "CLOB market-channel WebSocket URL")
	noFeed      = flag.Bool("no-feed", false, "Disable the live feed (poll-only mode)")
	gammaURL    = flag.String("gamma-url", envOr("PULSE_GAMMA_URL", ""), "Gamma API base URL override")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("Starting Polymarket Pulse")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := newDaemon()

	go d.hub.Run(ctx)

	if err := d.hydrate(ctx); err != nil {
		// A failed first hydration is not fatal; the refresh loop retries.
		log.Printf("[HYDRATE] initial hydration failed: %v", err)
		d.metrics.HydrationErrors.Inc()
	}

	if !*noFeed {
		if err := d.feed.Start(ctx); err != nil {
			log.Printf("[FEED] start failed (will keep polling): %v", err)
		}
	}

	go d.refreshLoop(ctx)
	go d.startHTTP()

	log.Printf("Pulse running (http=%s, tag=%q, timeframe=%s)", *httpAddr, *tag, d.store.Timeframe())
	log.Printf("WebSocket streaming available at ws://%s/ws", *httpAddr)

	<-sigCh
	log.Println("Shutting down...")

	if d.feed != nil {
		d.feed.Close()
	}
	cancel()

	log.Printf("Final state: %d events, %d history points", d.store.Len(), d.store.HistoryLen())
	log.Println("Goodbye!")
}

type daemon struct {
	gamma   *gamma.Client
	store   *store.Store
	books   *book.Mirror
	feed    *feed.Feed
	hub     *stream.Hub
	metrics *metrics.PulseMetrics
}

func newDaemon() *daemon {
	d := &daemon{
		books:   book.NewMirror(),
		metrics: metrics.NewPulseMetrics(),
	}
	d.hub = stream.NewHub(d.metrics)

	var gammaOpts []gamma.ClientOption
	if *gammaURL != "" {
		gammaOpts = append(gammaOpts, gamma.WithBaseURL(*gammaURL))
	}
	d.gamma = gamma.NewClient(gammaOpts...)

	markets.OnWarn = d.metrics.NormalizeWarnings.Inc

	d.store = store.New(
		store.WithTimeframe(markets.ParseTimeframe(*timeframe)),
		store.WithOnChange(func(eo *markets.EventOutcomes) {
			d.hub.BroadcastSummary(eo.EventID, eo.Summary)
		}),
	)

	d.feed = feed.New(feed.Config{
		URL:     *feedURL,
		Store:   d.store,
		Books:   d.books,
		Metrics: d.metrics,
	})

	return d
}

// hydrate fetches tracked events from Gamma, rebuilds their outcome
// bundles, and resubscribes the feed to the full token set.
func (d *daemon) hydrate(ctx context.Context) error {
	events, err := d.gamma.ListTradeableEvents(ctx, *tag, *maxEvents, 0)
	if err != nil {
		return err
	}

	bundles := make([]*markets.EventOutcomes, 0, len(events))
	nMarkets := 0
	for i := range events {
		eo := markets.BuildEventOutcomes(&events[i])
		if eo == nil {
			continue
		}
		bundles = append(bundles, eo)
		nMarkets += len(eo.Markets)
	}

	d.store.HydrateEvents(bundles)
	d.metrics.RecordHydration(len(bundles), nMarkets)
	d.metrics.UpdateStoreSize(d.store.Len(), d.countMarkets(), d.store.HistoryLen())

	if err := d.feed.Subscribe(d.store.TokenIDs()...); err != nil {
		log.Printf("[FEED] subscribe failed: %v", err)
	}

	log.Printf("[HYDRATE] %d events, %d markets", len(bundles), nMarkets)
	return nil
}

func (d *daemon) refreshLoop(ctx context.Context) {
	interval := time.Duration(*refreshMins) * time.Minute
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.hydrate(ctx); err != nil {
				log.Printf("[HYDRATE] refresh failed: %v", err)
				d.metrics.HydrationErrors.Inc()
			}
		}
	}
}

func (d *daemon) countMarkets() int {
	n := 0
	for _, eo := range d.store.Events() {
		n += len(eo.Markets)
	}
	return n
}

func (d *daemon) startHTTP() {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"status":    "ok",
			"events":    d.store.Len(),
			"timeframe": d.store.Timeframe(),
			"feed":      d.feed.IsConnected(),
		})
	})

	// Tracked events, full bundles
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.store.Events())
	})

	// Single event bundle
	mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/events/")
		eo := d.store.Event(id)
		if eo == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, eo)
	})

	// Ranked outcome summary, with an optional ?tf= override applied
	// store-wide.
	mux.HandleFunc("/summary/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/summary/")
		if tf := r.URL.Query().Get("tf"); tf != "" {
			d.store.SetTimeframe(markets.ParseTimeframe(tf))
		}
		summary := d.store.Summary(id)
		if summary == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, summary)
	})

	// Per-market probability history
	mux.HandleFunc("/history/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/history/")
		writeJSON(w, d.store.History(id))
	})

	// Top-of-book snapshot for a token
	mux.HandleFunc("/book/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/book/")
		b := d.books.Get(id)
		if b == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, b.Snapshot(20))
	})

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.HandlerFor(d.metrics.Registry(), promhttp.HandlerOpts{}))

	// WebSocket streaming endpoint
	mux.HandleFunc("/ws", d.hub.ServeWS)

	server := &http.Server{
		Addr:         *httpAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("HTTP server listening on %s", *httpAddr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("HTTP server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

package main

import (
	"flag"
	"os"
	"time"

	"trade-streamer/src/logger"
)

// Smoke check driver for a running trade-streamer instance. Start the
// streamer against cmd/feedsim, then run this to verify the whole
// pipeline end to end from the outside.

func main() {
	// 1. Parse command line flags
	apiBase := flag.String("api", "http://127.0.0.1:8090", "base URL of the status server")
	wsURL := flag.String("ws", "ws://127.0.0.1:8090/ws", "monitor websocket URL")
	watch := flag.Duration("watch", 10*time.Second, "how long to watch the monitor stream")
	flag.Parse()

	appLogger := logger.NewLogger(nil, "Smoke")

	// 2. Run the checks in order, REST surface first, then the stream
	probe := NewProbe(*apiBase, *wsURL, appLogger)

	checks := []struct {
		name string
		fn   func() error
	}{
		{"health", probe.CheckHealth},
		{"status", probe.CheckStatus},
		{"quotes", probe.CheckQuotes},
		{"totals", probe.CheckTotals},
		{"orders", probe.CheckOrders},
		{"monitor stream", func() error { return probe.CheckMonitorStream(*watch) }},
	}

	failed := 0
	for _, check := range checks {
		if err := check.fn(); err != nil {
			appLogger.Error("FAIL %s: %v", check.name, err)
			failed++
			continue
		}
		appLogger.Info("PASS %s", check.name)
	}

	// 3. Summary and exit code
	if failed > 0 {
		appLogger.Error("%d/%d checks failed", failed, len(checks))
		os.Exit(1)
	}
	appLogger.Info("All %d checks passed", len(checks))
}

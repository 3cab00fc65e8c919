package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"trade-streamer/src/logger"
)

// Feed simulator: a stand-in upstream that speaks the same frame
// protocol the streamer consumes. Useful for local runs and demos.

func main() {
	// 1. Parse command line flags
	addr := flag.String("addr", "127.0.0.1:9300", "listen address")
	symbolsArg := flag.String("symbols", "AAPL,MSFT,SPY", "comma separated symbols to stream")
	interval := flag.Duration("interval", 500*time.Millisecond, "delay between quote frames")
	chaos := flag.Bool("chaos", false, "inject malformed frames and random disconnects")
	flag.Parse()

	// 2. Setup Logger
	appLogger := logger.NewLogger(nil, "FeedSim")

	symbols := strings.Split(*symbolsArg, ",")
	for i := range symbols {
		symbols[i] = strings.ToUpper(strings.TrimSpace(symbols[i]))
	}

	// 3. Simulator and HTTP wiring
	sim := NewFeedSimulator(symbols, *interval, *chaos, appLogger)
	http.HandleFunc("/stream", sim.HandleStream)

	server := &http.Server{Addr: *addr}
	go func() {
		appLogger.Info("Feed simulator listening on ws://%s/stream", *addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Listen failed: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Stopping feed simulator")
	server.Close()
}

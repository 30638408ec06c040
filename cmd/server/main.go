/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the rental billing engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Load rate policy (file or defaults)
  4. Create API handler with dependencies
  5. Start gap scanner and HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port          HTTP server port (default: 8080)
  -db            SQLite database path (default: billing.db)
                 Use ":memory:" for in-memory database
  -policy        Path to a rate policy JSON file (default: built-in)
  -scan-interval How often the gap scanner runs (default: 1h)
  -no-scan       Disable the background gap scanner

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the gap scanner
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/billing.db"

  # Run with custom rates
  ./server -policy="./policy.json"

  # Run without the background scanner
  ./server -no-scan

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - factory/ratepolicy.go: Policy JSON loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medrent/billing-engine/api"
	"github.com/medrent/billing-engine/billing"
	"github.com/medrent/billing-engine/factory"
	"github.com/medrent/billing-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "billing.db", "SQLite database path")
	policyPath := flag.String("policy", "", "Rate policy JSON file (default: built-in rates)")
	scanInterval := flag.Duration("scan-interval", time.Hour, "Gap scanner interval")
	noScan := flag.Bool("no-scan", false, "Disable the background gap scanner")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Load rate policy
	policy := billing.DefaultRatePolicy()
	if *policyPath != "" {
		policy, err = factory.LoadPolicyFile(*policyPath)
		if err != nil {
			log.Fatalf("Failed to load rate policy: %v", err)
		}
		log.Printf("Loaded rate policy from %s", *policyPath)
	}

	// Initialize handler
	handler := api.NewHandler(store, policy)

	// Create router
	router := api.NewRouter(handler)

	// Start gap scanner
	scanner := api.NewGapScanner(store)
	scanner.CheckInterval = *scanInterval
	scanner.Enabled = !*noScan
	scanner.Start()
	defer scanner.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// probe - manual diagnostics tool
// Issues one authenticated request through the API client for a connected
// tenant, exercising the same token-refresh path the service uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/castlebay/ledgerlink/internal/apiclient"
	"github.com/castlebay/ledgerlink/internal/auth/token"
	"github.com/castlebay/ledgerlink/internal/config"
	"github.com/castlebay/ledgerlink/internal/connection"
	"github.com/castlebay/ledgerlink/internal/db"
	"github.com/castlebay/ledgerlink/internal/util"
)

func main() {
	configPath := flag.String("config", "ledgerlink.yaml", "path to config file")
	tenantID := flag.String("tenant", "", "tenant to probe")
	path := flag.String("path", "/invoices", "provider-relative path to request")
	method := flag.String("method", "GET", "HTTP method")
	flag.Parse()

	if *tenantID == "" {
		fmt.Fprintln(os.Stderr, "usage: probe -tenant <id> [-path /invoices] [-method GET]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	store := connection.NewStore(database)
	mgr := token.NewManager(store, &cfg.Provider)
	client := apiclient.NewClient(mgr, &cfg.Provider)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	resp, err := client.Request(ctx, *tenantID, *method, *path, url.Values{}, nil)
	if err != nil {
		log.Fatalf("❌ Probe failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
	}

	log.Printf("✅ %s %s → %d in %s", *method, *path, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	fmt.Println(util.TruncateBytes(resp.Body))
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/neboloop/walletlink/internal/browser"
	"github.com/neboloop/walletlink/internal/config"
)

// testbrowser launches a profile with the extension, opens a page and prints what
// the page looks like. It checks an engine and artifact pair without a wallet.
//
//	testbrowser [engine] [url]
func main() {
	_ = godotenv.Load()
	fmt.Println("=== Browser Test ===")

	if len(os.Args) >= 2 {
		os.Setenv("WALLETLINK_ENGINE", os.Args[1])
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("ERROR loading config: %v\n", err)
		os.Exit(1)
	}
	url := cfg.Site.URL
	if len(os.Args) >= 3 {
		url = os.Args[2]
	}

	fmt.Println("\n1. Starting Playwright...")
	pw, err := browser.Driver(cfg.Browser.Install, cfg.Engine())
	if err != nil {
		fmt.Printf("   ERROR: %v\n", err)
		os.Exit(1)
	}
	defer browser.StopDriver()

	fmt.Printf("\n2. Launching %s with %s...\n", cfg.Engine(), cfg.Browser.ExtensionDir)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Bootstrap)
	defer cancel()

	session, err := browser.NewLauncher(pw, nil).Launch(ctx, cfg.LaunchConfig())
	if err != nil {
		fmt.Printf("   ERROR: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()
	fmt.Printf("   Session %s in %s\n", session.ID(), session.Dir())

	page, err := session.InitialPage()
	if err != nil {
		fmt.Printf("   ERROR getting page: %v\n", err)
		return
	}

	fmt.Printf("\n3. Navigating to %s...\n", url)
	if err := page.Navigate(ctx, url, cfg.Timeouts.Step); err != nil {
		fmt.Printf("   ERROR: %v\n", err)
		return
	}
	// Give the extension a moment to open its welcome window.
	time.Sleep(2 * time.Second)

	for _, p := range session.ListPages() {
		fmt.Printf("\n4. %s", p.Diagnostics())
		snapshot, err := p.Snapshot()
		if err != nil {
			fmt.Printf("   ERROR: %v\n", err)
			continue
		}
		fmt.Printf("Snapshot (%d chars):\n%s\n", len(snapshot), snapshot)
	}

	fmt.Println("\n=== Done ===")
}

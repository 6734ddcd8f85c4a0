package connect

import (
	"regexp"

	"github.com/neboloop/walletlink/internal/browser"
)

// SiteURL is the trading app whose wallet connection is verified.
const SiteURL = "https://app.storm.tg/"

// DefaultWallet is the accessible name of the wallet tile on the site's picker.
const DefaultWallet = "tonkeeper"

// ConnectedRoute matches the URL the site lands on once a wallet is linked.
var ConnectedRoute = regexp.MustCompile(`.*trade/TON_USDT`)

// Site controls. The site must keep these names for the flow to work.
var (
	continueInBrowser = browser.Button("Continue")
	connectEntry      = browser.Button("connect wallet").FirstMatch()
	browserExtension  = browser.Button("Browser Extension")
	reloadPage        = browser.Button("reload the page")

	connectLabel = browser.Text("Connect wallet").FirstMatch()
	walletLabel  = browser.Text("Wallet")
)

func walletTile(name string) browser.Target {
	return browser.Button(name)
}

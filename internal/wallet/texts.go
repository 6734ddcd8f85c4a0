package wallet

import "github.com/neboloop/walletlink/internal/browser"

// Controls of the extension's onboarding wizard, by visible text. These are the
// contract with the extension UI; a layout change is fixed here.
var (
	getStarted      = browser.Button("Get started")
	existingWallet  = browser.Text("Existing Wallet")
	wizardContinue  = browser.Button("Continue")
	wizardInputs    = browser.CSS("input")
	wizardSubmit    = browser.CSS("button").FirstMatch()
	congratulations = browser.Text("Congratulations!")

	// retry lives on the site page; it re-triggers the extension after onboarding.
	retry = browser.Button("Retry")

	// ConnectWallet is the final popup's confirmation control.
	ConnectWallet = browser.Button("Connect wallet")
)

// Wizard shape.
const (
	// SeedWords is the length of a seed phrase.
	SeedWords = 24

	// passwordFields is the number of inputs on the password screen.
	passwordFields = 2
)

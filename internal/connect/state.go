package connect

// State is where the site page is in the connect flow. It is inferred from what is
// on screen and only used to label logs and failures.
type State int

const (
	Loaded State = iota
	ConnectPrompted
	ExtensionChosen
	AwaitingOnboarding
	Connected
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case ConnectPrompted:
		return "connect-prompted"
	case ExtensionChosen:
		return "extension-chosen"
	case AwaitingOnboarding:
		return "awaiting-onboarding"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

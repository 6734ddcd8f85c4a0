package wallet

// DefaultPassword unlocks the throwaway wallets the checks restore.
const DefaultPassword = "12345678"

// Credential is the unlock password as entered on the password screen. The wizard
// only proceeds when Password and Confirm match.
type Credential struct {
	Password string
	Confirm  string
}

// DefaultCredential returns DefaultPassword for both fields.
func DefaultCredential() Credential {
	return Credential{Password: DefaultPassword, Confirm: DefaultPassword}
}

// Matches reports whether the confirmation repeats the password.
func (c Credential) Matches() bool {
	return c.Password == c.Confirm
}

// String never reveals the password.
func (c Credential) String() string {
	return "Credential(redacted)"
}

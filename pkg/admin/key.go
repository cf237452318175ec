package admin

import "strings"

// keyReplacer maps characters that are illegal in document-store key
// syntax to a safe substitute. Everything else passes through unchanged
// so distinct emails keep distinct keys.
var keyReplacer = strings.NewReplacer(".", "_", "@", "_")

// DeriveKey maps an email address to the deterministic lookup key of
// its authorization record: lowercase, with '.' and '@' replaced by '_'.
// The same derivation must be used at provisioning and resolution time.
//
// Example: "Admin@Example.com" -> "admin_example_com"
func DeriveKey(email string) string {
	return keyReplacer.Replace(strings.ToLower(email))
}

package adminsession

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// tokenPrefix identifies CourseDesk admin session tokens.
const tokenPrefix = "cdsk_"

// tokenEntropy is the number of random bytes in a token (192 bits).
const tokenEntropy = 24

// newSessionToken creates an opaque, unguessable session token from
// random entropy plus a timestamp. The token only identifies the local
// session; it carries no server-side authority.
func newSessionToken(now time.Time) (string, error) {
	randomBytes := make([]byte, tokenEntropy)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(randomBytes)
	return fmt.Sprintf("%s%s.%d", tokenPrefix, encoded, now.Unix()), nil
}

package registration

import (
	"strings"

	"github.com/google/uuid"
)

// NewTicketCode mints the opaque token that identifies a registration for
// on-site redemption. Codes carry no decodable meaning; they only need to
// be globally unique and unguessable, which a v4 UUID's 122 random bits
// give us. The store's unique index backs up uniqueness.
func NewTicketCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

package wire

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// NewChatID mints an id for the chat.completion(.chunk) envelope, grounded
// directly on the teacher's generateChatID in internal/server/translate.go.
func NewChatID() string {
	return fmt.Sprintf("chatcmpl-%s", ulid.Make().String())
}

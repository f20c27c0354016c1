package pipeline

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rakunlabs/mockllm/internal/wire"
)

// WriteStreamError terminates an in-progress stream after at least one
// chunk was already sent, per spec.md §7's rule that a mid-stream failure
// cannot change the HTTP status (headers are already committed): it
// surfaces as a final error frame instead, followed by [DONE].
func WriteStreamError(w io.Writer, flush func(), chatID, model, message, kind string) {
	frame := wire.StreamErrorFrame{
		ID:     chatID,
		Object: "chat.completion.chunk",
		Model:  model,
		Choices: []wire.ErrorChoice{{
			Index:        0,
			FinishReason: "error",
			Error:        &wire.WireError{Message: message, Type: kind},
		}},
	}
	data, _ := json.Marshal(frame)
	fmt.Fprintf(w, "data: %s\n\n", data)
	fmt.Fprint(w, "data: [DONE]\n\n")
	if flush != nil {
		flush()
	}
}

package interactive

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteEvent writes one SSE-framed event line: a single JSON object per
// `data: ` line, followed by a blank line, per spec.md §4.5.
func WriteEvent(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

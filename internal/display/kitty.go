package display

import (
	"encoding/base64"
	"fmt"
	"io"
)

const (
	escapeStart = "\x1b_G"
	escapeEnd   = "\x1b\\"
	chunkSize   = 4096
)

// KittyEncoder writes PNG data as a kitty graphics protocol transmission.
type KittyEncoder struct {
	out io.Writer
	// Columns, when positive, scales the image to that many terminal cells.
	Columns int
}

func NewKittyEncoder(out io.Writer) *KittyEncoder {
	return &KittyEncoder{out: out}
}

func (e *KittyEncoder) Encode(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	chunks := splitIntoChunks(encoded, chunkSize)

	for i, chunk := range chunks {
		params := e.params(i == 0, i == len(chunks)-1)
		if _, err := fmt.Fprintf(e.out, "%s%s;%s%s", escapeStart, params, chunk, escapeEnd); err != nil {
			return err
		}
	}

	return nil
}

// params builds the control keys for one chunk. Only the first chunk
// carries the action and format; m=1 marks that more chunks follow.
func (e *KittyEncoder) params(first, last bool) string {
	if !first {
		if last {
			return "m=0"
		}
		return "m=1"
	}

	p := "a=T,f=100,q=2"
	if e.Columns > 0 {
		p += fmt.Sprintf(",c=%d", e.Columns)
	}
	if !last {
		p += ",m=1"
	}
	return p
}

func splitIntoChunks(s string, size int) []string {
	var chunks []string
	for len(s) > 0 {
		n := size
		if len(s) < n {
			n = len(s)
		}
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return chunks
}

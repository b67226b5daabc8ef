package rax

import (
	"bufio"
	"io"
	"strings"
)

const doneSentinel = "[DONE]"

// lineDecoder turns a raw event-stream body into data payloads, one per
// "data:" line. Partial lines (no trailing newline yet) stay buffered until
// the next read completes them; everything that is not a data line
// (keep-alives, comments) is ignored.
type lineDecoder struct {
	r *bufio.Reader
}

func newLineDecoder(r io.Reader) *lineDecoder {
	return &lineDecoder{r: bufio.NewReader(r)}
}

// next returns the next data payload, or io.EOF when the transport is done.
// A final line lacking its newline at EOF is still delivered.
func (d *lineDecoder) next() (string, error) {
	for {
		line, err := d.r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}

		payload, isData := strings.CutPrefix(strings.TrimRight(line, "\r\n"), "data:")
		if isData {
			if p := strings.TrimSpace(payload); p != "" {
				return p, nil
			}
		}

		if err == io.EOF {
			return "", io.EOF
		}
	}
}

package ldsccts

import (
	"bufio"
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// delimiterSniffBytes is how much of the stream we look at when guessing the
// delimiter. Enough for a header and a few dozen GWAS rows.
const delimiterSniffBytes = 16 * 1024

// DetermineDelimiter returns the single most likely rune that would delimit
// the values in br, assuming a CSV-like file. It only peeks, so br can still
// be handed to a csv.Reader afterwards. Whitespace-aligned files that the
// detector cannot resolve fall back to tab, then space, then comma.
func DetermineDelimiter(br *bufio.Reader) rune {
	sample, _ := br.Peek(delimiterSniffBytes)
	if len(sample) == 0 {
		return '\t'
	}

	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(sample), '"')
	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	firstLine := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		firstLine = sample[:i]
	}
	switch {
	case bytes.IndexByte(firstLine, '\t') >= 0:
		return '\t'
	case bytes.IndexByte(firstLine, ' ') >= 0:
		return ' '
	}

	return ','
}

// NewBufferedReader wraps r so that DetermineDelimiter can peek far enough.
func NewBufferedReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok && br.Size() >= delimiterSniffBytes {
		return br
	}
	return bufio.NewReaderSize(r, BufferSize)
}

package sumstats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/ldsccts"
	"github.com/carbocation/pfx"
)

var ErrMissingColumn = errors.New("column not found in header")

// Table is a small in-memory data frame: one header and string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Col returns the index of the named column, or -1.
func (t *Table) Col(name string) int {
	return indexOf(t.Header, name)
}

func newReader(r io.Reader, delim, comment rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.Comment = comment
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	if delim == ' ' {
		cr.TrimLeadingSpace = true
	}
	return cr
}

// ReadGWAS reads GWAS summary statistics, keeping only the layout's four
// columns, renamed and reordered to rsID, beta, se, pval. The delimiter is
// detected from the data.
func ReadGWAS(r io.Reader, layout Layout) (*Table, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	br := ldsccts.NewBufferedReader(r)
	cr := newReader(br, ldsccts.DetermineDelimiter(br), layout.Comment)

	header, err := cr.Read()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("reading GWAS header: %w", err))
	}
	trimHeader(header)

	// Position of each canonical column in the source file
	positions := make([]int, len(CanonicalColumns))
	for i, canonical := range CanonicalColumns {
		src, _ := layout.source(canonical)
		positions[i] = indexOf(header, src)
		if positions[i] < 0 {
			return nil, fmt.Errorf("GWAS column %q (%s) in layout %s: %w", src, canonical, layout.Name, ErrMissingColumn)
		}
	}

	out := &Table{Header: append([]string(nil), CanonicalColumns...)}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		row := make([]string, len(positions))
		for i, pos := range positions {
			if pos >= len(rec) {
				return nil, fmt.Errorf("GWAS line %d has %d fields, needed field %d", line, len(rec), pos+1)
			}
			row[i] = rec[pos]
		}
		out.Rows = append(out.Rows, row)
	}

	return out, nil
}

// ReadCollection reads the tab-delimited rsID => chr/pos mapping. It must have
// an rsID column; every other column is carried through to the join.
func ReadCollection(r io.Reader) (*Table, error) {
	cr := newReader(r, '\t', 0)

	header, err := cr.Read()
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("reading collection header: %w", err))
	}
	trimHeader(header)

	if indexOf(header, ColRsID) < 0 {
		return nil, fmt.Errorf("collection column %q: %w", ColRsID, ErrMissingColumn)
	}

	out := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}
		out.Rows = append(out.Rows, rec)
	}

	return out, nil
}

func trimHeader(header []string) {
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

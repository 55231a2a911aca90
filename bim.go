package ldsccts

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Positions of the whitespace-delimited columns of a PLINK .bim file
const (
	BIMChromosome int = iota
	BIMVariantID
	BIMMorgans
	BIMCoordinate
	BIMAllele1
	BIMAllele2
)

type BIMRow struct {
	Chromosome string
	Coordinate uint32 // Labeled "position" by most applications
	VariantID  string // E.g., RSID
	Allele1    string // Can contain > 1 character
	Allele2    string
}

// BIMReader yields the variants of a .bim file one at a time.
type BIMReader struct {
	scanner *bufio.Scanner
	line    int
}

func NewBIMReader(r io.Reader) *BIMReader {
	return &BIMReader{scanner: bufio.NewScanner(r)}
}

// Next returns the next variant, or io.EOF after the last one. Blank lines
// are skipped.
func (b *BIMReader) Next() (BIMRow, error) {
	for b.scanner.Scan() {
		b.line++

		cols := strings.Fields(b.scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) < BIMAllele2+1 {
			return BIMRow{}, fmt.Errorf("bim line %d: expected %d columns, found %d", b.line, BIMAllele2+1, len(cols))
		}

		coord, err := strconv.ParseUint(cols[BIMCoordinate], 10, 32)
		if err != nil {
			return BIMRow{}, fmt.Errorf("bim line %d: %w", b.line, err)
		}

		return BIMRow{
			Chromosome: cols[BIMChromosome],
			VariantID:  cols[BIMVariantID],
			Coordinate: uint32(coord),
			Allele1:    cols[BIMAllele1],
			Allele2:    cols[BIMAllele2],
		}, nil
	}

	if err := b.scanner.Err(); err != nil {
		return BIMRow{}, err
	}

	return BIMRow{}, io.EOF
}

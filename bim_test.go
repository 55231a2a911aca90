package ldsccts

import (
	"io"
	"strings"
	"testing"
)

func TestBIMReader(t *testing.T) {
	data := "1\trs3094315\t0\t752566\tG\tA\n\n1 rs12562034 0.0 768448 A GT\n"

	r := NewBIMReader(strings.NewReader(data))

	row, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if row.Chromosome != "1" || row.VariantID != "rs3094315" || row.Coordinate != 752566 || row.Allele1 != "G" || row.Allele2 != "A" {
		t.Errorf("Unexpected first row %+v", row)
	}

	row, err = r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if row.Coordinate != 768448 || row.Allele2 != "GT" {
		t.Errorf("Unexpected second row %+v", row)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestBIMReaderErrors(t *testing.T) {
	cases := map[string]string{
		"short":      "1 rs1 0 100 A\n",
		"coordinate": "1 rs1 0 abc A G\n",
	}

	for name, data := range cases {
		if _, err := NewBIMReader(strings.NewReader(data)).Next(); err == nil || err == io.EOF {
			t.Errorf("%s: expected a parse error, got %v", name, err)
		}
	}
}

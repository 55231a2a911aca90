package sumstats

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical column names, in output order
const (
	ColRsID = "rsID"
	ColBeta = "beta"
	ColSE   = "se"
	ColPval = "pval"
)

var CanonicalColumns = []string{ColRsID, ColBeta, ColSE, ColPval}

// Layout describes where a GWAS file keeps the four columns we need. Columns
// maps the source header name onto the canonical name. Lines starting with
// Comment, when set, are skipped.
type Layout struct {
	Name    string
	Comment rune
	Columns map[string]string
}

// CustomLayout builds a Layout from the source names of the rsID, beta, se
// and pval columns.
func CustomLayout(rsID, beta, se, pval string) Layout {
	return Layout{
		Name: "custom",
		Columns: map[string]string{
			rsID: ColRsID,
			beta: ColBeta,
			se:   ColSE,
			pval: ColPval,
		},
	}
}

// ParseComment turns a command line value into a Layout comment character.
// The empty string means no comment lines.
func ParseComment(s string) (rune, error) {
	r := []rune(s)
	switch {
	case len(r) == 0:
		return 0, nil
	case len(r) > 1:
		return 0, fmt.Errorf("comment must be a single character, got %q", s)
	case r[0] == '\t' || r[0] == ' ' || r[0] == ',' || r[0] == '"' || r[0] == '\r' || r[0] == '\n':
		return 0, fmt.Errorf("%q cannot mark comments", s)
	}
	return r[0], nil
}

var Layouts = map[string]Layout{
	// hg19chrc snpid a1 a2 bp info or se p ngt
	"SCZ_Ripke2014": {
		Name:    "SCZ_Ripke2014",
		Columns: map[string]string{"snpid": ColRsID, "or": ColBeta, "se": ColSE, "p": ColPval},
	},
	// SNP CHR POS A1 A2 REF EAF Beta se P N INFO
	"ALKES_UKBB": {
		Name:    "ALKES_UKBB",
		Columns: map[string]string{"SNP": ColRsID, "Beta": ColBeta, "se": ColSE, "P": ColPval},
	},
	"BMI_Locke2015": {
		Name:    "BMI_Locke2015",
		Columns: map[string]string{"SNP": ColRsID, "b": ColBeta, "se": ColSE, "p": ColPval},
	},
}

func LayoutNames() string {
	names := make([]string, 0, len(Layouts))
	for m := range Layouts {
		names = append(names, m)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}

// LookupLayout returns the named built-in layout.
func LookupLayout(name string) (Layout, error) {
	layout, exists := Layouts[name]
	if !exists {
		return Layout{}, fmt.Errorf("Layout %s not recognized. Options are: %s", name, LayoutNames())
	}

	return layout, nil
}

// source returns the source column name for a canonical name.
func (l Layout) source(canonical string) (string, bool) {
	for src, dst := range l.Columns {
		if dst == canonical {
			return src, true
		}
	}
	return "", false
}

// Validate makes sure each canonical column is provided exactly once.
func (l Layout) Validate() error {
	seen := make(map[string]int)
	for src, dst := range l.Columns {
		if src == "" {
			return fmt.Errorf("layout %s: empty source column for %s", l.Name, dst)
		}
		seen[dst]++
	}

	for _, c := range CanonicalColumns {
		if seen[c] != 1 {
			return fmt.Errorf("layout %s: expected exactly one source column for %s, found %d", l.Name, c, seen[c])
		}
	}

	if len(l.Columns) != len(CanonicalColumns) {
		return fmt.Errorf("layout %s: expected %d columns, found %d", l.Name, len(CanonicalColumns), len(l.Columns))
	}

	return nil
}

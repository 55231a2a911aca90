// Package ctsresults gathers the <out>.cell_type_results.txt files that
// ldsc.py --h2-cts leaves behind, scores them per GWAS and annotation, and
// exports them as a TSV or into BigQuery.
package ctsresults

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"
)

// Float is a nullable float that understands the missing-value spellings
// found in ldsc output (NA, nan, empty).
type Float struct {
	null.Float
}

func FloatFrom(f float64) Float {
	return Float{null.FloatFrom(f)}
}

func (f *Float) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null":
		f.Float = null.Float{}
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return pfx.Err(err)
	}
	f.Float = null.FloatFrom(v)

	return nil
}

func (f Float) MarshalCSV() (string, error) {
	return NullFloatFormatter(f.Float), nil
}

func NullFloatFormatter(n null.Float) string {
	if !n.Valid {
		return "NA"
	}

	return strconv.FormatFloat(n.Float64, 'g', -1, 64)
}

// Result is one row of a cell_type_results.txt file.
type Result struct {
	Name                string `csv:"Name"`
	Coefficient         Float  `csv:"Coefficient"`
	CoefficientStdError Float  `csv:"Coefficient_std_error"`
	CoefficientPValue   Float  `csv:"Coefficient_P_value"`
}

// Parse reads a tab-delimited cell_type_results.txt.
func Parse(r io.Reader) ([]Result, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	records := []*Result{}
	if err := gocsv.UnmarshalCSV(cr, &records); err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]Result, 0, len(records))
	for _, rec := range records {
		out = append(out, *rec)
	}

	return out, nil
}

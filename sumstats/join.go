package sumstats

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"log"

	"github.com/carbocation/pfx"
)

// OutputSuffix is appended to the output prefix by the rolypoly reformatter.
const OutputSuffix = ".gwassumstats.rolypoly_fmt.tab.gz"

// Report counts how many GWAS SNPs made it through the join.
type Report struct {
	GWASRows int
	NotFound int
	Joined   int
}

func (r Report) PercentNotFound() float64 {
	if r.GWASRows == 0 {
		return 0
	}
	return float64(r.NotFound) / float64(r.GWASRows) * 100
}

func (r Report) Log() {
	log.Printf("Number of SNPs in GWAS data: %d\n", r.GWASRows)
	log.Printf("Number of SNPs in GWAS data *NOT found* in SNP chr pos mapping file: %d\n", r.NotFound)
	log.Printf("Percent SNPs not found: %.2f %%\n", r.PercentNotFound())
	log.Printf("Rows after join: %d\n", r.Joined)
}

// Join inner-joins gwas and collection on rsID. Rows come out in GWAS order;
// an rsID present more than once in the collection yields one row per match,
// in collection order. The header is the GWAS header followed by every
// collection column except rsID. A name found on both sides gets an _x suffix
// on the GWAS column and a _y suffix on the collection column.
func Join(gwas, collection *Table) (*Table, Report) {
	report := Report{GWASRows: len(gwas.Rows)}

	gKey := gwas.Col(ColRsID)
	cKey := collection.Col(ColRsID)

	keep := make([]int, 0, len(collection.Header))
	for i := range collection.Header {
		if i != cKey {
			keep = append(keep, i)
		}
	}
	header := joinHeader(gwas.Header, collection.Header, gKey, keep)

	index := make(map[string][]int)
	for i, row := range collection.Rows {
		if cKey < len(row) {
			index[row[cKey]] = append(index[row[cKey]], i)
		}
	}

	out := &Table{Header: header}
	for _, g := range gwas.Rows {
		matches := index[g[gKey]]
		if len(matches) == 0 {
			report.NotFound++
			continue
		}

		for _, m := range matches {
			c := collection.Rows[m]
			row := make([]string, 0, len(header))
			row = append(row, g...)
			for _, k := range keep {
				if k < len(c) {
					row = append(row, c[k])
				} else {
					row = append(row, "")
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	report.Joined = len(out.Rows)

	return out, report
}

// WriteGzipTSV writes t, header first, as gzipped tab-separated text. w is
// not closed.
func WriteGzipTSV(w io.Writer, t *Table) error {
	zw := gzip.NewWriter(w)

	cw := csv.NewWriter(zw)
	cw.Comma = '\t'

	if err := cw.Write(t.Header); err != nil {
		return pfx.Err(err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return pfx.Err(err)
	}

	if err := zw.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func joinHeader(gwasHeader, collectionHeader []string, gKey int, keep []int) []string {
	collectionNames := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		collectionNames[collectionHeader[k]] = struct{}{}
	}

	shared := make(map[string]struct{})
	header := make([]string, 0, len(gwasHeader)+len(keep))
	for i, h := range gwasHeader {
		if _, exists := collectionNames[h]; exists && i != gKey {
			shared[h] = struct{}{}
			h += "_x"
		}
		header = append(header, h)
	}

	for _, k := range keep {
		h := collectionHeader[k]
		if _, exists := shared[h]; exists {
			h += "_y"
		}
		header = append(header, h)
	}

	return header
}

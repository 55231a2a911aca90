package ctsresults

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/pfx"
)

var TSVHeader = []string{
	"annotation", "gwas", "name",
	"coefficient", "coefficient_std_error", "coefficient_p_value",
	"n_tests", "bonferroni_significant", "q_value",
}

// WriteTSV writes rows with TSVHeader. Missing values are written as NA.
func WriteTSV(w io.Writer, rows []Collected) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(TSVHeader); err != nil {
		return pfx.Err(err)
	}

	for _, r := range rows {
		rec := []string{
			r.Annotation,
			r.GWAS,
			r.Name,
			NullFloatFormatter(r.Coefficient.Float),
			NullFloatFormatter(r.CoefficientStdError.Float),
			NullFloatFormatter(r.CoefficientPValue.Float),
			strconv.Itoa(r.NTests),
			strconv.FormatBool(r.Bonferroni),
			NullFloatFormatter(r.QValue.Float),
		}
		if err := cw.Write(rec); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()
	return pfx.Err(cw.Error())
}

// BQRow is the BigQuery shape of a Collected row.
type BQRow struct {
	Annotation          string               `bigquery:"annotation"`
	GWAS                string               `bigquery:"gwas"`
	Name                string               `bigquery:"name"`
	Coefficient         bigquery.NullFloat64 `bigquery:"coefficient"`
	CoefficientStdError bigquery.NullFloat64 `bigquery:"coefficient_std_error"`
	CoefficientPValue   bigquery.NullFloat64 `bigquery:"coefficient_p_value"`
	NTests              int64                `bigquery:"n_tests"`
	Bonferroni          bool                 `bigquery:"bonferroni_significant"`
	QValue              bigquery.NullFloat64 `bigquery:"q_value"`
	SourceFile          string               `bigquery:"source_file"`
}

func toBQ(f Float) bigquery.NullFloat64 {
	return bigquery.NullFloat64{Float64: f.Float64, Valid: f.Valid}
}

func BigQueryRows(rows []Collected) []*BQRow {
	out := make([]*BQRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, &BQRow{
			Annotation:          r.Annotation,
			GWAS:                r.GWAS,
			Name:                r.Name,
			Coefficient:         toBQ(r.Coefficient),
			CoefficientStdError: toBQ(r.CoefficientStdError),
			CoefficientPValue:   toBQ(r.CoefficientPValue),
			NTests:              int64(r.NTests),
			Bonferroni:          r.Bonferroni,
			QValue:              toBQ(r.QValue),
			SourceFile:          r.File,
		})
	}
	return out
}

// uploadChunk keeps each streaming insert well below the request size limit.
const uploadChunk = 500

// UploadBigQuery streams rows into project:dataset.table, creating the table
// from the BQRow schema if it does not exist yet.
func UploadBigQuery(ctx context.Context, client *bigquery.Client, dataset, table string, rows []Collected) error {
	tbl := client.Dataset(dataset).Table(table)

	if _, err := tbl.Metadata(ctx); err != nil {
		schema, err := bigquery.InferSchema(BQRow{})
		if err != nil {
			return pfx.Err(err)
		}
		if err := tbl.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
			return pfx.Err(err)
		}
	}

	bqRows := BigQueryRows(rows)
	ins := tbl.Inserter()
	for start := 0; start < len(bqRows); start += uploadChunk {
		end := start + uploadChunk
		if end > len(bqRows) {
			end = len(bqRows)
		}
		if err := ins.Put(ctx, bqRows[start:end]); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}

// ctsresults gathers every <annotation>.<gwas>.<suffix>.cell_type_results.txt
// file of an LDSC output folder into one table with per-GWAS multiple
// testing correction, and optionally streams it into BigQuery.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/carbocation/ldsccts"
	_ "github.com/carbocation/ldsccts/compileinfoprint"
	"github.com/carbocation/ldsccts/config"
	"github.com/carbocation/ldsccts/ctsresults"
)

func main() {
	var dir, suffix, output, project, dataset, table string
	var fdr float64
	var significantOnly bool

	flag.StringVar(&dir, "dir", "", "LDSC output folder (out_dir in the ldsccts config). May be a gs:// URL.")
	flag.StringVar(&suffix, "suffix", config.DefaultOutSuffix, "out_suffix used by the regressions")
	flag.StringVar(&output, "output", "", "(Optional) Path for the TSV. Defaults to STDOUT. May be a gs:// URL.")
	flag.Float64Var(&fdr, "fdr", 0.05, "False discovery rate for -significant")
	flag.BoolVar(&significantOnly, "significant", false, "Only emit rows with a q-value below -fdr")
	flag.StringVar(&project, "project", "", "(Optional) BigQuery project. With -dataset and -table, results are also uploaded.")
	flag.StringVar(&dataset, "dataset", "", "(Optional) BigQuery dataset")
	flag.StringVar(&table, "table", "", "(Optional) BigQuery table. Created if it does not exist.")
	flag.Parse()

	if dir == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	var client *storage.Client
	var err error
	if ldsccts.IsGoogleStorage(dir) || ldsccts.IsGoogleStorage(output) {
		client, err = storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		defer client.Close()
	}

	rows, err := ctsresults.Collect(ctx, dir, suffix, client)
	if err != nil {
		log.Fatalln(err)
	}
	ctsresults.Annotate(rows)

	if significantOnly {
		rows = ctsresults.Significant(rows, fdr)
		log.Printf("%d rows pass FDR < %g\n", len(rows), fdr)
	}

	if output == "" {
		if err := ctsresults.WriteTSV(os.Stdout, rows); err != nil {
			log.Fatalln(err)
		}
	} else {
		w, err := ldsccts.Create(ctx, output, client)
		if err != nil {
			log.Fatalln(err)
		}
		if err := ctsresults.WriteTSV(w, rows); err != nil {
			log.Fatalln(err)
		}
		if err := w.Close(); err != nil {
			log.Fatalln(err)
		}
		log.Println("Wrote", len(rows), "rows to", output)
	}

	if project == "" || dataset == "" || table == "" {
		return
	}

	bq, err := bigquery.NewClient(ctx, project)
	if err != nil {
		log.Fatalln(err)
	}
	defer bq.Close()

	if err := ctsresults.UploadBigQuery(ctx, bq, dataset, table, rows); err != nil {
		log.Fatalln(err)
	}
	log.Printf("Uploaded %d rows to %s:%s.%s\n", len(rows), project, dataset, table)
}

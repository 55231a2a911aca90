// gwas2rolypoly joins GWAS summary statistics onto an rsID => chr/pos mapping
// and writes the gzipped, tab-delimited rsID/beta/se/pval/.../chr/pos table
// that RolyPoly expects.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/ldsccts"
	_ "github.com/carbocation/ldsccts/compileinfoprint"
	"github.com/carbocation/ldsccts/sumstats"
)

func main() {
	var gwasPath, collectionPath, outPrefix, layoutName string
	var rsID, beta, se, pval, comment string

	flag.StringVar(&gwasPath, "gwas", "", "GWAS summary statistics file. May be compressed and may be a gs:// URL.")
	flag.StringVar(&collectionPath, "collection", "", "Tab-delimited rsID to chr/pos mapping with an rsID column, e.g., snpsnap_EUR_1KG_phase3-chrpos_mapping.tab.gz")
	flag.StringVar(&outPrefix, "out", "", "Output prefix. "+sumstats.OutputSuffix+" will be appended.")
	flag.StringVar(&layoutName, "layout", "", fmt.Sprintf("Built-in GWAS column layout. Options: %s", sumstats.LayoutNames()))
	flag.StringVar(&rsID, "rsid", "", "(Custom layout) Name of the rsID column")
	flag.StringVar(&beta, "beta", "", "(Custom layout) Name of the effect size column")
	flag.StringVar(&se, "se", "", "(Custom layout) Name of the standard error column")
	flag.StringVar(&pval, "pval", "", "(Custom layout) Name of the P value column")
	flag.StringVar(&comment, "comment", "", "Optional. Single character that starts comment lines in the GWAS file, e.g., #")
	flag.Parse()

	if gwasPath == "" || collectionPath == "" || outPrefix == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	var layout sumstats.Layout
	var err error
	switch {
	case layoutName != "":
		layout, err = sumstats.LookupLayout(layoutName)
		if err != nil {
			log.Fatalln(err)
		}
	case rsID != "" && beta != "" && se != "" && pval != "":
		layout = sumstats.CustomLayout(rsID, beta, se, pval)
	default:
		fmt.Fprintln(os.Stderr, "Please pass -layout, or all four of -rsid -beta -se -pval")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if layout.Comment, err = sumstats.ParseComment(comment); err != nil {
		log.Fatalln(err)
	}

	ctx := context.Background()

	var client *storage.Client
	if ldsccts.IsGoogleStorage(gwasPath) || ldsccts.IsGoogleStorage(collectionPath) || ldsccts.IsGoogleStorage(outPrefix) {
		client, err = storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		defer client.Close()
	}

	if _, err := sumstats.Convert(ctx, gwasPath, collectionPath, outPrefix, layout, client); err != nil {
		log.Fatalln(err)
	}

	log.Println("SCRIPT ENDED")
}

package ctsresults

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/ldsccts"
)

// ResultsSuffix is what ldsc.py appends to --out for --h2-cts runs.
const ResultsSuffix = ".cell_type_results.txt"

// Collected is one Result together with the regression that produced it and
// its multiple-testing summary.
type Collected struct {
	Annotation string
	GWAS       string
	File       string
	Result

	// Filled by Annotate
	NTests     int
	Bonferroni bool
	QValue     Float
}

// SplitResultsName recovers the annotation and GWAS from a results file
// named <annotation>.<gwas>.<outSuffix>.cell_type_results.txt. Annotation
// names may contain dots; GWAS names may not.
func SplitResultsName(file, outSuffix string) (annotation, gwas string, err error) {
	name := path.Base(strings.ReplaceAll(file, "\\", "/"))

	trailer := ResultsSuffix
	if outSuffix != "" {
		trailer = "." + outSuffix + ResultsSuffix
	}
	if !strings.HasSuffix(name, trailer) {
		return "", "", fmt.Errorf("%s does not end with %s", name, trailer)
	}
	stem := strings.TrimSuffix(name, trailer)

	i := strings.LastIndex(stem, ".")
	if i <= 0 || i == len(stem)-1 {
		return "", "", fmt.Errorf("%s: cannot split %q into annotation and gwas", name, stem)
	}

	return stem[:i], stem[i+1:], nil
}

// Collect parses every results file directly inside outDir, which may be a
// local folder or a gs:// prefix. Files are visited in sorted order.
func Collect(ctx context.Context, outDir, outSuffix string, client *storage.Client) ([]Collected, error) {
	prefix := strings.TrimRight(outDir, "/") + "/"

	trailer := ResultsSuffix
	if outSuffix != "" {
		trailer = "." + outSuffix + ResultsSuffix
	}

	files, err := ldsccts.ListPrefixSuffix(ctx, prefix, trailer, client)
	if err != nil {
		return nil, err
	}
	log.Printf("Found %d %s files in %s\n", len(files), trailer, outDir)

	out := make([]Collected, 0)
	for _, file := range files {
		annotation, gwas, err := SplitResultsName(file, outSuffix)
		if err != nil {
			return nil, err
		}

		results, err := parseFile(ctx, file, client)
		if err != nil {
			return nil, err
		}

		for _, r := range results {
			out = append(out, Collected{
				Annotation: annotation,
				GWAS:       gwas,
				File:       file,
				Result:     r,
			})
		}
	}

	return out, nil
}

func parseFile(ctx context.Context, file string, client *storage.Client) ([]Result, error) {
	f, _, err := ldsccts.OpenDecompressed(ctx, file, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	results, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return results, nil
}

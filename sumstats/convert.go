package sumstats

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/ldsccts"
	"github.com/carbocation/pfx"
)

// OutputPath is the file that Convert writes for outPrefix.
func OutputPath(outPrefix string) string {
	return outPrefix + OutputSuffix
}

// Convert reads a GWAS file and an rsID collection (either may be compressed,
// either may live on gs://), joins them and writes the rolypoly-formatted
// output next to outPrefix.
func Convert(ctx context.Context, gwasPath, collectionPath, outPrefix string, layout Layout, client *storage.Client) (Report, error) {
	log.Println("START: reading collection", collectionPath)
	started := time.Now()
	collection, err := readCollectionFile(ctx, collectionPath, client)
	if err != nil {
		return Report{}, err
	}
	log.Printf("END: read %d collection rows in %s\n", len(collection.Rows), time.Since(started))

	log.Println("START: reading GWAS", gwasPath, "with layout", layout.Name)
	gwas, err := readGWASFile(ctx, gwasPath, layout, client)
	if err != nil {
		return Report{}, err
	}
	log.Println("END: reading GWAS")

	log.Println("Joining data frames...")
	joined, report := Join(gwas, collection)
	report.Log()
	log.Printf("Dimensions of output file: (%d, %d)\n", len(joined.Rows), len(joined.Header))

	outPath := OutputPath(outPrefix)
	log.Println("START: exporting file...")
	w, err := ldsccts.Create(ctx, outPath, client)
	if err != nil {
		return report, pfx.Err(err)
	}
	if err := WriteGzipTSV(w, joined); err != nil {
		w.Close()
		return report, err
	}
	if err := w.Close(); err != nil {
		return report, pfx.Err(fmt.Errorf("%s: %w", outPath, err))
	}
	log.Println("END: exported file:", outPath)

	return report, nil
}

func readCollectionFile(ctx context.Context, path string, client *storage.Client) (*Table, error) {
	f, _, err := ldsccts.OpenDecompressed(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadCollection(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func readGWASFile(ctx context.Context, path string, layout Layout, client *storage.Client) (*Table, error) {
	f, _, err := ldsccts.OpenDecompressed(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadGWAS(f, layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

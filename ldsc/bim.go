package ldsc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"cloud.google.com/go/storage"
	"github.com/carbocation/ldsccts"
	"github.com/carbocation/ldsccts/config"
)

var ErrBadBIM = errors.New("unusable PLINK bim file")

// BIMFile is the per-chromosome .bim that make_annot_from_geneset_all_chr.py
// derives from --bimfile_basename.
func BIMFile(cfg *config.Config, chr int) string {
	return cfg.BimfileBasename + "." + strconv.Itoa(chr) + ".bim"
}

// CheckBIMFiles makes sure that a .bim file exists for every autosome and
// that its first variant sits on the expected chromosome. Only the first
// line of each file is read.
func CheckBIMFiles(ctx context.Context, cfg *config.Config, client *storage.Client) error {
	for chr := 1; chr <= NumAutosomes; chr++ {
		if err := checkBIM(ctx, BIMFile(cfg, chr), chr, client); err != nil {
			return err
		}
	}

	log.Printf("Found %d bim files under %s\n", NumAutosomes, cfg.BimfileBasename)

	return nil
}

func checkBIM(ctx context.Context, path string, chr int, client *storage.Client) error {
	f, _, err := ldsccts.OpenDecompressed(ctx, path, client)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, ErrBadBIM)
	}
	defer f.Close()

	row, err := ldsccts.NewBIMReader(f).Next()
	if err == io.EOF {
		return fmt.Errorf("%s has no variants: %w", path, ErrBadBIM)
	} else if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, ErrBadBIM)
	}

	if row.Chromosome != strconv.Itoa(chr) && row.Chromosome != "chr"+strconv.Itoa(chr) {
		return fmt.Errorf("%s starts with a variant on chromosome %s, expected %d: %w", path, row.Chromosome, chr, ErrBadBIM)
	}

	return nil
}

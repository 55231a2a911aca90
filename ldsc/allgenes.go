package ldsc

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/BenLubar/memoize"
	"github.com/carbocation/ldsccts"
	"github.com/carbocation/ldsccts/config"
)

// NumAutosomes is how many per-chromosome LD score files a complete reference
// annotation has.
const NumAutosomes = 22

const LDScoreSuffix = "l2.ldscore.gz"

var (
	ErrUnknownDataset    = errors.New("dataset not found in all_genes_prefixes")
	ErrUnknownAnnotation = errors.New("annotation not found in config")
	ErrIncompleteLDScore = errors.New("incomplete all-genes LD score files")
)

// Resolver maps a dataset onto the --ref-ld-chr prefix of its "all genes in
// dataset" control annotation, checking that the LD scores for every
// chromosome exist. Listings are memoized per prefix for the lifetime of the
// Resolver, failures included.
type Resolver struct {
	cfg   *config.Config
	count func(string) (int, error)
}

func NewResolver(ctx context.Context, cfg *config.Config, client *storage.Client) *Resolver {
	count := func(prefix string) (int, error) {
		files, err := ldsccts.ListPrefixSuffix(ctx, prefix, LDScoreSuffix, client)
		if err != nil {
			return 0, err
		}
		return len(files), nil
	}

	return &Resolver{
		cfg:   cfg,
		count: memoize.Memoize(count).(func(string) (int, error)),
	}
}

// AllGenesRefPrefix returns the full path prefix, including its trailing
// ".", that ldsc.py should receive in --ref-ld-chr.
func (r *Resolver) AllGenesRefPrefix(dataset string) (string, error) {
	prefix, exists := r.cfg.AllGenesPrefixes[dataset]
	if !exists {
		return "", fmt.Errorf("dataset=%s: %w", dataset, ErrUnknownDataset)
	}

	n, err := r.count(prefix)
	if err != nil {
		return "", fmt.Errorf("dataset=%s: %w", dataset, err)
	}

	if n != NumAutosomes {
		return "", fmt.Errorf("dataset=%s only has n=%d matching %s*%s files. Expected %d files. Check the ldscore file directory or update all_genes_prefixes: %w",
			dataset, n, prefix, LDScoreSuffix, NumAutosomes, ErrIncompleteLDScore)
	}

	return prefix, nil
}

// ValidateAllGenes makes sure every configured annotation can be conditioned
// on its all-genes control before any expensive work starts.
func (r *Resolver) ValidateAllGenes() error {
	for _, name := range r.cfg.AnnotationNames() {
		if _, err := r.AllGenesRefPrefix(r.cfg.Annotations[name].Dataset); err != nil {
			return fmt.Errorf("annotation %s: %w", name, err)
		}
	}

	return nil
}

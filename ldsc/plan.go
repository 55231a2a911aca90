package ldsc

import (
	"context"
	"log"

	"cloud.google.com/go/storage"
	"github.com/carbocation/ldsccts"
	"github.com/carbocation/ldsccts/batch"
	"github.com/carbocation/ldsccts/config"
)

// RegressionJob is one ldsc.py --h2-cts run.
type RegressionJob struct {
	Annotation string
	GWAS       string
	OutPrefix  string
	Command    batch.Command
}

// ResultsFile is the output whose presence marks the job as done.
func (j RegressionJob) ResultsFile() string {
	return j.OutPrefix + CellTypeResultsSuffix
}

// PlanRegressions builds one job per (annotation, GWAS) pair. Annotations are
// visited in sorted order and GWAS in configured order. Pairs whose
// cell_type_results.txt already exists are returned in skipped rather than
// jobs.
func PlanRegressions(ctx context.Context, cfg *config.Config, resolver *Resolver, client *storage.Client) (jobs []RegressionJob, skipped []RegressionJob, err error) {
	jobs = make([]RegressionJob, 0)
	skipped = make([]RegressionJob, 0)

	for _, annotName := range cfg.AnnotationNames() {
		allGenesPrefix, err := resolver.AllGenesRefPrefix(cfg.Annotations[annotName].Dataset)
		if err != nil {
			return nil, nil, err
		}

		for _, gwas := range cfg.GWAS {
			job := RegressionJob{
				Annotation: annotName,
				GWAS:       gwas,
				OutPrefix:  OutPrefix(cfg, annotName, gwas),
				Command:    RegressionCommand(cfg, annotName, gwas, allGenesPrefix),
			}

			done, err := ldsccts.Exists(ctx, job.ResultsFile(), client)
			if err != nil {
				return nil, nil, err
			}
			if done {
				log.Printf("GWAS=%s, prefix_genomic_annot=%s | LDSC output file exists: %s. Will skip this LDSC regression...\n", gwas, annotName, job.OutPrefix)
				skipped = append(skipped, job)
				continue
			}

			jobs = append(jobs, job)
		}
	}

	return jobs, skipped, nil
}

// Commands extracts the commands of jobs, in order, for the batch scheduler.
func Commands(jobs []RegressionJob) []batch.Command {
	out := make([]batch.Command, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Command)
	}
	return out
}

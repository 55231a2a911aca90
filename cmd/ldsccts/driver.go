package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"cloud.google.com/go/storage"
	"github.com/carbocation/ldsccts/batch"
	"github.com/carbocation/ldsccts/config"
	"github.com/carbocation/ldsccts/ldsc"
	"github.com/carbocation/ldsccts/pipeline"
	"github.com/carbocation/ldsccts/runstore"
)

type driver struct {
	cfg      *config.Config
	client   *storage.Client
	launcher batch.Launcher

	store *runstore.Store
	runID int64

	dryRun         bool
	skipPrecompute bool

	// Commands are echoed here in dry-run mode
	out io.Writer
}

// run returns the number of regressions that exited non-zero. An error means
// the workflow could not be carried through.
func (d *driver) run(ctx context.Context) (int, error) {
	resolver := ldsc.NewResolver(ctx, d.cfg, d.client)

	log.Println("Checking the all-genes control annotations")
	if err := resolver.ValidateAllGenes(); err != nil {
		return 0, err
	}

	if d.skipPrecompute {
		log.Println("Skipping pre-computation")
	} else {
		if err := ldsc.CheckBIMFiles(ctx, d.cfg, d.client); err != nil {
			return 0, err
		}

		for _, annotName := range d.cfg.AnnotationNames() {
			if err := d.precompute(annotName); err != nil {
				return 0, err
			}
		}
	}

	jobs, skipped, err := ldsc.PlanRegressions(ctx, d.cfg, resolver, d.client)
	if err != nil {
		return 0, err
	}
	log.Printf("Planned %d LDSC regressions; %d already have results\n", len(jobs), len(skipped))

	cmds := ldsc.Commands(jobs)
	if d.dryRun {
		d.echo(cmds)
		return 0, nil
	}

	scheduler := batch.New(d.launcher)
	scheduler.OnComplete = func(st batch.ExitStatus) {
		d.record(ldsc.StageRegression, st)
	}

	statuses, err := scheduler.RunAll(cmds, d.cfg.ParallelJobs)
	failures := batch.Failures(statuses)
	for _, f := range failures {
		j := jobs[f.Index-1]
		log.Printf("GWAS=%s, prefix_genomic_annot=%s | %s\n", j.GWAS, j.Annotation, f)
	}

	return len(failures), err
}

// precompute runs the four pre-computation stages for one annotation and
// stops at the first one that fails.
func (d *driver) precompute(annotName string) error {
	stages, err := ldsc.PrecomputeStages(d.cfg, annotName)
	if err != nil {
		return err
	}

	if d.dryRun {
		for _, s := range stages {
			fmt.Fprintln(d.out, s.Command)
		}
		return nil
	}

	log.Printf("Pre-computing %s\n", annotName)

	p := pipeline.New(d.launcher)
	p.OnComplete = func(r pipeline.StageResult) {
		d.record(r.Name, r.Status)
	}

	if err := pipeline.Err(p.Run(stages)); err != nil {
		return fmt.Errorf("%s: %w", annotName, err)
	}

	return nil
}

func (d *driver) echo(cmds []batch.Command) {
	for _, c := range cmds {
		fmt.Fprintln(d.out, c)
	}
}

func (d *driver) record(kind string, st batch.ExitStatus) {
	if d.store == nil {
		return
	}

	if err := d.store.RecordJob(d.runID, kind, st); err != nil {
		log.Println("Could not record job in the run ledger:", err)
	}
}

// ldsccts runs the LDSC cell-type-specific workflow: it checks the all-genes
// control annotations, pre-computes LD scores for every configured
// annotation, and then runs one ldsc.py --h2-cts regression per annotation
// and GWAS, a few at a time.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/ldsccts"
	"github.com/carbocation/ldsccts/batch"
	_ "github.com/carbocation/ldsccts/compileinfoprint"
	"github.com/carbocation/ldsccts/config"
	"github.com/carbocation/ldsccts/runstore"
)

// Exit code when every command ran but at least one regression failed
const exitJobsFailed = 2

func main() {
	var configPath, dbPath string
	var dryRun, skipPrecompute, verify bool
	var jobs int

	flag.StringVar(&configPath, "config", "", "Path to a .yaml, .yml or .toml workflow configuration")
	flag.StringVar(&dbPath, "db", "", "(Optional) Path to a sqlite run ledger. Created if it does not exist.")
	flag.BoolVar(&dryRun, "dry-run", false, "Print the commands that would run, but do not run them")
	flag.BoolVar(&skipPrecompute, "skip-precompute", false, "Skip annotation and LD score pre-computation, e.g., when it is already done")
	flag.BoolVar(&verify, "verify-executables", true, "Fail a launch, rather than the job, if its program is not on PATH")
	flag.IntVar(&jobs, "jobs", 0, "(Optional) Number of regressions to run at once. Overrides parallel_jobs from the config.")
	flag.Parse()

	if configPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if jobs > 0 {
		cfg.ParallelJobs = jobs
	}

	ctx := context.Background()

	var client *storage.Client
	if usesGoogleStorage(cfg) {
		client, err = storage.NewClient(ctx)
		if err != nil {
			log.Fatalln(err)
		}
		defer client.Close()
	}

	d := &driver{
		cfg:            cfg,
		client:         client,
		launcher:       &batch.ShellLauncher{VerifyExecutable: verify},
		dryRun:         dryRun,
		skipPrecompute: skipPrecompute,
		out:            os.Stdout,
	}

	if dbPath != "" && !dryRun {
		store, err := runstore.Open(dbPath)
		if err != nil {
			log.Fatalln(err)
		}
		defer store.Close()

		d.store = store
		d.runID, err = store.BeginRun(strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath)))
		if err != nil {
			log.Fatalln(err)
		}
		log.Printf("Recording run %d in %s\n", d.runID, dbPath)
	}

	failed, err := d.run(ctx)
	if d.store != nil {
		if ferr := d.store.FinishRun(d.runID, failed); ferr != nil {
			log.Println(ferr)
		}
	}
	if err != nil {
		log.Fatalln(err)
	}

	if failed > 0 {
		log.Printf("%d LDSC regressions failed\n", failed)
		os.Exit(exitJobsFailed)
	}

	fmt.Fprintln(os.Stderr, "Script is done!")
}

func usesGoogleStorage(cfg *config.Config) bool {
	paths := []string{cfg.ScratchDir, cfg.CTSDir, cfg.SumstatsDir, cfg.OutDir, cfg.BimfileBasename}
	for _, p := range cfg.AllGenesPrefixes {
		paths = append(paths, p)
	}

	for _, p := range paths {
		if ldsccts.IsGoogleStorage(p) {
			return true
		}
	}

	return false
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/ldsccts/batch"
	"github.com/carbocation/ldsccts/config"
	"github.com/carbocation/ldsccts/ldsc"
	"github.com/carbocation/ldsccts/runstore"
)

// fakeLauncher exits with 1 for any command containing one of fail.
type fakeLauncher struct {
	fail     []string
	launched []batch.Command
}

type fakeJob struct {
	pid  int
	code int
}

func (j *fakeJob) PID() int           { return j.pid }
func (j *fakeJob) Wait() (int, error) { return j.code, nil }

func (l *fakeLauncher) Launch(c batch.Command) (batch.Job, error) {
	l.launched = append(l.launched, c)

	code := 0
	for _, f := range l.fail {
		if strings.Contains(string(c), f) {
			code = 1
		}
	}

	return &fakeJob{pid: 1000 + len(l.launched), code: code}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Python = "python"
	cfg.LDSCScript = "ldsc.py"
	cfg.ScriptsDir = "/opt/scripts"
	cfg.GeneCoordFile = "/data/gene_coords.txt"
	cfg.BimfileBasename = filepath.Join(root, "1000G.EUR.QC")
	cfg.ScratchDir = filepath.Join(root, "scratch")
	cfg.CTSDir = filepath.Join(root, "cts")
	cfg.SumstatsDir = "/data/sumstats"
	cfg.OutDir = filepath.Join(root, "out")
	cfg.BaselinePrefix = "/data/baseline."
	cfg.WeightsPrefix = "/data/weights."
	cfg.GWAS = []string{"BMI_Yengo2018", "SCZ_Ripke2014"}
	cfg.Annotations = map[string]config.Annotation{
		"celltypes.campbell": {Dataset: "campbell", MultiGeneSetFile: "/data/campbell.csv"},
	}

	for chr := 1; chr <= ldsc.NumAutosomes; chr++ {
		row := fmt.Sprintf("%d\trs%d\t0\t%d\tA\tG\n", chr, chr, 1000*chr)
		if err := os.WriteFile(ldsc.BIMFile(cfg, chr), []byte(row), 0644); err != nil {
			t.Fatal(err)
		}
	}

	prefix := filepath.Join(root, "control.all_genes_in_dataset.campbell.")
	cfg.AllGenesPrefixes = map[string]string{"campbell": prefix}
	for chr := 1; chr <= ldsc.NumAutosomes; chr++ {
		if err := os.WriteFile(fmt.Sprintf("%s%d.%s", prefix, chr, ldsc.LDScoreSuffix), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	return cfg
}

func TestDriverRun(t *testing.T) {
	cfg := testConfig(t)

	store, err := runstore.Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	runID, err := store.BeginRun("test")
	if err != nil {
		t.Fatal(err)
	}

	launcher := &fakeLauncher{fail: []string{"SCZ_Ripke2014"}}
	d := &driver{cfg: cfg, launcher: launcher, store: store, runID: runID}

	failed, err := d.run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if failed != 1 {
		t.Errorf("Expected 1 failed regression, got %d", failed)
	}

	// 4 pre-computation stages and 2 regressions
	if len(launcher.launched) != 6 {
		t.Fatalf("Expected 6 launches, got %d: %v", len(launcher.launched), launcher.launched)
	}
	if !strings.Contains(string(launcher.launched[0]), ldsc.MakeAnnotScript) {
		t.Errorf("Expected make_annot first, got %s", launcher.launched[0])
	}

	jobs, err := store.Jobs(runID)
	if err != nil {
		t.Fatal(err)
	}
	kinds := make([]string, 0, len(jobs))
	for _, j := range jobs {
		kinds = append(kinds, j.Kind)
	}
	expected := []string{
		ldsc.StageMakeAnnot, ldsc.StageComputeLDScore, ldsc.StageSplitLDScore, ldsc.StageMakeCTS,
		ldsc.StageRegression, ldsc.StageRegression,
	}
	if strings.Join(kinds, ",") != strings.Join(expected, ",") {
		t.Errorf("Unexpected recorded kinds %v", kinds)
	}
	if jobs[5].ExitCode != 1 || jobs[4].ExitCode != 0 {
		t.Errorf("Unexpected exit codes %+v", jobs[4:])
	}
}

func TestDriverHaltsOnPrecomputeFailure(t *testing.T) {
	cfg := testConfig(t)

	launcher := &fakeLauncher{fail: []string{ldsc.SplitLDScoreScript}}
	d := &driver{cfg: cfg, launcher: launcher}

	if _, err := d.run(context.Background()); err == nil || !strings.Contains(err.Error(), ldsc.StageSplitLDScore) {
		t.Fatalf("Expected the split stage to halt the run, got %v", err)
	}

	if len(launcher.launched) != 3 {
		t.Errorf("Expected nothing after the failed stage, got %v", launcher.launched)
	}
}

func TestDriverSkipsFinishedRegressions(t *testing.T) {
	cfg := testConfig(t)

	done := ldsc.OutPrefix(cfg, "celltypes.campbell", "BMI_Yengo2018") + ldsc.CellTypeResultsSuffix
	if err := os.MkdirAll(filepath.Dir(done), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(done, nil, 0644); err != nil {
		t.Fatal(err)
	}

	launcher := &fakeLauncher{}
	d := &driver{cfg: cfg, launcher: launcher, skipPrecompute: true}

	if _, err := d.run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(launcher.launched) != 1 || !strings.Contains(string(launcher.launched[0]), "SCZ_Ripke2014") {
		t.Errorf("Expected only the SCZ regression, got %v", launcher.launched)
	}
}

func TestDriverDryRun(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	launcher := &fakeLauncher{}
	d := &driver{cfg: cfg, launcher: launcher, dryRun: true, out: &out}

	if _, err := d.run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(launcher.launched) != 0 {
		t.Errorf("Dry run launched %v", launcher.launched)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 6 || !strings.Contains(lines[5], "--h2-cts") {
		t.Errorf("Unexpected dry run output:\n%s", out.String())
	}
}

func TestDriverRejectsIncompleteControl(t *testing.T) {
	cfg := testConfig(t)
	if err := os.Remove(cfg.AllGenesPrefixes["campbell"] + "22." + ldsc.LDScoreSuffix); err != nil {
		t.Fatal(err)
	}

	launcher := &fakeLauncher{}
	d := &driver{cfg: cfg, launcher: launcher}

	if _, err := d.run(context.Background()); err == nil {
		t.Fatal("Expected the missing chromosome to stop the run")
	}
	if len(launcher.launched) != 0 {
		t.Errorf("Nothing should run before validation passes: %v", launcher.launched)
	}
}

func TestDriverChecksBIMFiles(t *testing.T) {
	cfg := testConfig(t)
	if err := os.Remove(ldsc.BIMFile(cfg, 7)); err != nil {
		t.Fatal(err)
	}

	launcher := &fakeLauncher{}
	d := &driver{cfg: cfg, launcher: launcher}

	if _, err := d.run(context.Background()); !errors.Is(err, ldsc.ErrBadBIM) {
		t.Fatalf("Expected ErrBadBIM, got %v", err)
	}
	if len(launcher.launched) != 0 {
		t.Errorf("Nothing should run without bim files: %v", launcher.launched)
	}

	// Not needed when pre-computation is skipped
	d.skipPrecompute = true
	if _, err := d.run(context.Background()); err != nil {
		t.Error(err)
	}
}

func TestUsesGoogleStorage(t *testing.T) {
	cfg := testConfig(t)
	if usesGoogleStorage(cfg) {
		t.Error("Expected a local configuration")
	}

	cfg.OutDir = "gs://bucket/out"
	if !usesGoogleStorage(cfg) {
		t.Error("Expected gs:// to be noticed")
	}

	// bim files are read by the driver itself
	cfg = testConfig(t)
	cfg.BimfileBasename = "gs://bucket/plink/1000G.EUR.QC"
	if !usesGoogleStorage(cfg) {
		t.Error("Expected a gs:// bimfile basename to need a storage client")
	}
}

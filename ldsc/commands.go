package ldsc

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/carbocation/ldsccts/batch"
	"github.com/carbocation/ldsccts/config"
	"github.com/carbocation/ldsccts/pipeline"
	"github.com/kballard/go-shellquote"
)

// Names of the helper scripts expected inside config.ScriptsDir
const (
	MakeAnnotScript      = "make_annot_from_geneset_all_chr.py"
	ComputeLDScoreScript = "wrapper_compute_ldscores.py"
	SplitLDScoreScript   = "split_ldscores.py"
	MakeCTSScript        = "make_cts_file.py"
)

// Stage names, also used as the job kind in the run ledger
const (
	StageMakeAnnot      = "make_annot"
	StageComputeLDScore = "compute_ldscores"
	StageSplitLDScore   = "split_ldscores"
	StageMakeCTS        = "make_cts_file"
	StageRegression     = "regression"
)

const (
	CellTypeResultsSuffix = ".cell_type_results.txt"
	CTSFileSuffix         = ".ldcts.txt"
)

func joinPath(dir string, elem ...string) string {
	if strings.Contains(dir, "://") {
		return strings.TrimRight(dir, "/") + "/" + path.Join(elem...)
	}
	return path.Join(append([]string{dir}, elem...)...)
}

// withSlash keeps the trailing "/" that the helper scripts use to tell a
// folder prefix from a file prefix.
func withSlash(p string) string {
	return strings.TrimRight(p, "/") + "/"
}

func command(args ...string) batch.Command {
	return batch.Command(shellquote.Join(args...))
}

func script(cfg *config.Config, name string) string {
	return joinPath(cfg.ScriptsDir, name)
}

// AnnotDir is the scratch folder holding all intermediate files for one
// annotation.
func AnnotDir(cfg *config.Config, annotName string) string {
	return withSlash(joinPath(cfg.ScratchDir, annotName))
}

// CTSFile is where make_cts_file.py writes, and where the regression reads,
// the per-annotation .ldcts file list.
func CTSFile(cfg *config.Config, annotName string) string {
	return joinPath(cfg.CTSDir, annotName+CTSFileSuffix)
}

// OutPrefix is the --out value of one regression.
func OutPrefix(cfg *config.Config, annotName, gwas string) string {
	return joinPath(cfg.OutDir, annotName+"."+gwas+"."+cfg.OutSuffix)
}

// MakeAnnotCommand builds annotations for every chromosome from a multi gene
// set file. With many modules (thousands) this is memory hungry.
func MakeAnnotCommand(cfg *config.Config, annotName string) batch.Command {
	annot := cfg.Annotations[annotName]

	args := []string{
		cfg.Python, script(cfg, MakeAnnotScript),
		"--file_multi_gene_set", annot.MultiGeneSetFile,
		"--file_gene_coord", cfg.GeneCoordFile,
		"--windowsize", strconv.Itoa(cfg.WindowSize),
		"--bimfile_basename", cfg.BimfileBasename,
	}
	if cfg.BinaryAnnotation {
		args = append(args, "--flag_encode_as_binary_annotation")
	}
	if cfg.WGCNA {
		args = append(args, "--flag_wgcna", "--flag_mouse")
	}
	args = append(args,
		"--out_dir", joinPath(cfg.ScratchDir, annotName),
		"--out_prefix", annotName,
	)

	return command(args...)
}

// ComputeLDScoreCommand is CPU heavy: ~220% CPU with 4 parallel jobs.
func ComputeLDScoreCommand(cfg *config.Config, annotName string) batch.Command {
	return command(
		cfg.Python, script(cfg, ComputeLDScoreScript),
		"--prefix_annot_files", AnnotDir(cfg, annotName),
		"--n_parallel_jobs", strconv.Itoa(cfg.LDScoreParallelJobs),
	)
}

// SplitLDScoreCommand reads one N_SNPs x N_Modules .l2.ldscore.gz file per
// parallel job.
func SplitLDScoreCommand(cfg *config.Config, annotName string) batch.Command {
	return command(
		cfg.Python, script(cfg, SplitLDScoreScript),
		"--prefix_ldscore_files", AnnotDir(cfg, annotName),
		"--n_parallel_jobs", strconv.Itoa(cfg.SplitParallelJobs),
	)
}

func MakeCTSCommand(cfg *config.Config, annotName string) batch.Command {
	return command(
		cfg.Python, script(cfg, MakeCTSScript),
		"--prefix_ldscore_files", withSlash(joinPath(cfg.ScratchDir, annotName, "per_annotation")),
		"--cts_outfile", CTSFile(cfg, annotName),
	)
}

// RegressionCommand runs ldsc.py --h2-cts for one annotation and one GWAS,
// conditioning on the baseline model plus the all-genes control annotation.
func RegressionCommand(cfg *config.Config, annotName, gwas, allGenesPrefix string) batch.Command {
	return command(
		cfg.Python, cfg.LDSCScript,
		"--h2-cts", joinPath(cfg.SumstatsDir, gwas+".sumstats.gz"),
		"--ref-ld-chr", cfg.BaselinePrefix+","+allGenesPrefix,
		"--w-ld-chr", cfg.WeightsPrefix,
		"--ref-ld-chr-cts", CTSFile(cfg, annotName),
		"--out", OutPrefix(cfg, annotName, gwas),
	)
}

// PrecomputeStages returns the four steps that must succeed, in order, before
// any regression on annotName can run.
func PrecomputeStages(cfg *config.Config, annotName string) ([]pipeline.Stage, error) {
	if _, exists := cfg.Annotations[annotName]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnnotation, annotName)
	}

	return []pipeline.Stage{
		{Name: StageMakeAnnot, Command: MakeAnnotCommand(cfg, annotName)},
		{Name: StageComputeLDScore, Command: ComputeLDScoreCommand(cfg, annotName)},
		{Name: StageSplitLDScore, Command: SplitLDScoreCommand(cfg, annotName)},
		{Name: StageMakeCTS, Command: MakeCTSCommand(cfg, annotName)},
	}, nil
}

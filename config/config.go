// Package config holds everything the LDSC driver used to hardcode: tool
// locations, reference data prefixes, datasets, GWAS lists and parallelism.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/carbocation/pfx"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWindowSize          = 100000
	DefaultParallelJobs        = 2
	DefaultLDScoreParallelJobs = 4
	DefaultSplitParallelJobs   = 4
	DefaultOutSuffix           = "baseline_v1.1_all_genes"
)

// Annotation is one named multi-gene-set input, e.g.,
// "wgcna.mousebrain-181214.fdr_sign_celltypes.continuous".
type Annotation struct {
	// Dataset selects the "all genes in dataset" control annotation
	Dataset          string `yaml:"dataset" toml:"dataset"`
	MultiGeneSetFile string `yaml:"multi_gene_set_file" toml:"multi_gene_set_file"`
}

type Config struct {
	Python     string `yaml:"python" toml:"python"`
	LDSCScript string `yaml:"ldsc_script" toml:"ldsc_script"`

	// Folder with make_annot_from_geneset_all_chr.py, wrapper_compute_ldscores.py,
	// split_ldscores.py and make_cts_file.py
	ScriptsDir string `yaml:"scripts_dir" toml:"scripts_dir"`

	GeneCoordFile   string `yaml:"gene_coord_file" toml:"gene_coord_file"`
	WindowSize      int    `yaml:"windowsize" toml:"windowsize"`
	BimfileBasename string `yaml:"bimfile_basename" toml:"bimfile_basename"`

	ScratchDir  string `yaml:"scratch_dir" toml:"scratch_dir"`
	CTSDir      string `yaml:"cts_dir" toml:"cts_dir"`
	SumstatsDir string `yaml:"sumstats_dir" toml:"sumstats_dir"`
	OutDir      string `yaml:"out_dir" toml:"out_dir"`
	OutSuffix   string `yaml:"out_suffix" toml:"out_suffix"`

	// Both prefixes must carry their trailing "." as ldsc.py expects
	BaselinePrefix string `yaml:"baseline_prefix" toml:"baseline_prefix"`
	WeightsPrefix  string `yaml:"weights_prefix" toml:"weights_prefix"`

	ParallelJobs        int `yaml:"parallel_jobs" toml:"parallel_jobs"`
	LDScoreParallelJobs int `yaml:"ldscore_parallel_jobs" toml:"ldscore_parallel_jobs"`
	SplitParallelJobs   int `yaml:"split_parallel_jobs" toml:"split_parallel_jobs"`

	BinaryAnnotation bool `yaml:"binary_annotation" toml:"binary_annotation"`
	WGCNA            bool `yaml:"wgcna" toml:"wgcna"`

	GWAS        []string              `yaml:"gwas" toml:"gwas"`
	Annotations map[string]Annotation `yaml:"annotations" toml:"annotations"`

	// Dataset name => full path prefix (with trailing ".") of the per-chromosome
	// all-genes LD score files
	AllGenesPrefixes map[string]string `yaml:"all_genes_prefixes" toml:"all_genes_prefixes"`
}

// Default returns a Config with every optional setting filled in.
func Default() *Config {
	return &Config{
		WindowSize:          DefaultWindowSize,
		OutSuffix:           DefaultOutSuffix,
		ParallelJobs:        DefaultParallelJobs,
		LDScoreParallelJobs: DefaultLDScoreParallelJobs,
		SplitParallelJobs:   DefaultSplitParallelJobs,
		Annotations:         make(map[string]Annotation),
		AllGenesPrefixes:    make(map[string]string),
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unrecognized config extension %q (expected .yaml, .yml or .toml)", path, ext)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from LDSCCTS_* environment variables. lookup is
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LDSCCTS_PYTHON":      &c.Python,
		"LDSCCTS_LDSC_SCRIPT": &c.LDSCScript,
		"LDSCCTS_SCRIPTS_DIR": &c.ScriptsDir,
		"LDSCCTS_OUT_DIR":     &c.OutDir,
		"LDSCCTS_SCRATCH_DIR": &c.ScratchDir,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("LDSCCTS_PARALLEL_JOBS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LDSCCTS_PARALLEL_JOBS: %w", err)
		}
		c.ParallelJobs = n
	}

	return nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"python", c.Python},
		{"ldsc_script", c.LDSCScript},
		{"scripts_dir", c.ScriptsDir},
		{"gene_coord_file", c.GeneCoordFile},
		{"bimfile_basename", c.BimfileBasename},
		{"scratch_dir", c.ScratchDir},
		{"cts_dir", c.CTSDir},
		{"sumstats_dir", c.SumstatsDir},
		{"out_dir", c.OutDir},
		{"out_suffix", c.OutSuffix},
		{"baseline_prefix", c.BaselinePrefix},
		{"weights_prefix", c.WeightsPrefix},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("config: %s is required", r.name)
		}
	}

	if c.WindowSize <= 0 {
		return fmt.Errorf("config: windowsize must be positive, got %d", c.WindowSize)
	}
	for name, n := range map[string]int{
		"parallel_jobs":         c.ParallelJobs,
		"ldscore_parallel_jobs": c.LDScoreParallelJobs,
		"split_parallel_jobs":   c.SplitParallelJobs,
	} {
		if n < 1 {
			return fmt.Errorf("config: %s must be at least 1, got %d", name, n)
		}
	}

	if len(c.GWAS) == 0 {
		return fmt.Errorf("config: at least one gwas is required")
	}
	if len(c.Annotations) == 0 {
		return fmt.Errorf("config: at least one annotation is required")
	}

	for _, name := range c.AnnotationNames() {
		annot := c.Annotations[name]
		if annot.MultiGeneSetFile == "" {
			return fmt.Errorf("config: annotation %s has no multi_gene_set_file", name)
		}
		if _, exists := c.AllGenesPrefixes[annot.Dataset]; !exists {
			return fmt.Errorf("config: annotation %s uses dataset %q, which has no entry in all_genes_prefixes", name, annot.Dataset)
		}
	}

	return nil
}

// AnnotationNames returns the annotation names in sorted order, so that runs
// are reproducible regardless of map iteration order.
func (c *Config) AnnotationNames() []string {
	out := make([]string, 0, len(c.Annotations))
	for name := range c.Annotations {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

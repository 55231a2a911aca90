// Package ldsc turns a config.Config into the command lines of the external
// LDSC tool chain: annotation building, LD score computation and splitting,
// cts file creation and the cell-type-specific heritability regression.
package ldsc

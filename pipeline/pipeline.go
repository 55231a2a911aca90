// Package pipeline chains external commands that must run one after another,
// such as the pre-computation steps that feed an LDSC regression. Each stage
// yields a StageResult; whether a failure halts the chain is up to the
// caller.
package pipeline

import (
	"fmt"
	"log"

	"github.com/carbocation/ldsccts/batch"
)

type Stage struct {
	Name    string
	Command batch.Command
}

type StageResult struct {
	Stage
	Status batch.ExitStatus

	// Err is set when the stage could not be launched or observed
	Err error
}

func (r StageResult) Failed() bool {
	return r.Err != nil || !r.Status.Success()
}

// Reason describes why a stage failed, or returns "" for a successful stage.
func (r StageResult) Reason() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("stage %q could not run: %v", r.Name, r.Err)
	case !r.Status.Success():
		return fmt.Sprintf("stage %q exited with code %d", r.Name, r.Status.Code)
	}
	return ""
}

type Pipeline struct {
	Launcher batch.Launcher
	Logger   batch.Logger

	// HaltOnFailure stops the chain after the first failed stage. Stages that
	// never ran are absent from the results.
	HaltOnFailure bool

	// OnComplete, if set, is called after every stage that ran.
	OnComplete func(StageResult)
}

func New(launcher batch.Launcher) *Pipeline {
	return &Pipeline{
		Launcher:      launcher,
		Logger:        log.Default(),
		HaltOnFailure: true,
	}
}

// Run executes stages strictly one at a time, in order.
func (p *Pipeline) Run(stages []Stage) []StageResult {
	results := make([]StageResult, 0, len(stages))

	for i, stage := range stages {
		result := p.runOne(stage, i+1)
		if p.OnComplete != nil {
			p.OnComplete(result)
		}
		results = append(results, result)

		if result.Failed() && p.HaltOnFailure {
			p.logger().Println(result.Reason())
			break
		}
	}

	return results
}

func (p *Pipeline) runOne(stage Stage, index int) StageResult {
	result := StageResult{
		Stage: stage,
		Status: batch.ExitStatus{
			Command: stage.Command,
			Index:   index,
			Batch:   index,
			Code:    -1,
		},
	}

	p.logger().Printf("Running command: %s\n", stage.Command)

	job, err := p.Launcher.Launch(stage.Command)
	if err != nil {
		result.Err = err
		return result
	}
	result.Status.PID = job.PID()

	code, err := job.Wait()
	if err != nil {
		result.Err = err
		return result
	}
	result.Status.Code = code

	p.logger().Printf("Return code: %d\n", code)

	return result
}

func (p *Pipeline) logger() batch.Logger {
	if p.Logger == nil {
		return log.Default()
	}
	return p.Logger
}

// FirstFailure returns the first failed stage, or nil.
func FirstFailure(results []StageResult) *StageResult {
	for i := range results {
		if results[i].Failed() {
			return &results[i]
		}
	}
	return nil
}

// Err converts the first failure, if any, into an error.
func Err(results []StageResult) error {
	if f := FirstFailure(results); f != nil {
		return fmt.Errorf("pipeline: %s", f.Reason())
	}
	return nil
}

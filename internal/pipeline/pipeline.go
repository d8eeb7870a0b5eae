// Package pipeline runs one assessment end to end: freeze, infer, research,
// synthesize, format, persist. Every stage past validation degrades rather
// than fails; the only hard errors are an unusable assessment and a totally
// unconfigured retrieval layer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gabiworks/leadintel/internal/assessment"
	"github.com/gabiworks/leadintel/internal/htmlreport"
	"github.com/gabiworks/leadintel/internal/inference"
	"github.com/gabiworks/leadintel/internal/reportstore"
	"github.com/gabiworks/leadintel/internal/research"
	"github.com/gabiworks/leadintel/internal/synthesis"
)

type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func StageNameFromError(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "pipeline"
}

type StageProgressFn func(stage, message string)

// RunMetadata is the audit trail for one report generation.
type RunMetadata struct {
	StartedAt      time.Time                `json:"started_at"`
	CompletedAt    time.Time                `json:"completed_at"`
	StagesExecuted []string                 `json:"stages_executed"`
	StageDurations map[string]time.Duration `json:"stage_durations"`
	ResearchError  string                   `json:"research_error,omitempty"`
	PersistError   string                   `json:"persist_error,omitempty"`
	UsedSimulated  bool                     `json:"used_simulated_research"`
	SynthesisPath  synthesis.SynthesisPath  `json:"synthesis_path"`
}

type Result struct {
	Report    synthesis.Report           `json:"report"`
	HTML      string                     `json:"-"`
	Findings  research.Findings          `json:"-"`
	Inference inference.ContextInference `json:"inference"`
	Metadata  RunMetadata                `json:"metadata"`
}

// Pipeline wires the stages together. The store is optional; persistence is
// best-effort and never blocks a result.
type Pipeline struct {
	orchestrator *research.Orchestrator
	synthesizer  *synthesis.Synthesizer
	store        *reportstore.Store
	now          func() time.Time
}

func New(orchestrator *research.Orchestrator, synthesizer *synthesis.Synthesizer, store *reportstore.Store) *Pipeline {
	return &Pipeline{orchestrator: orchestrator, synthesizer: synthesizer, store: store, now: time.Now}
}

func (p *Pipeline) Run(ctx context.Context, in *assessment.Input) (Result, error) {
	return p.RunWithProgress(ctx, in, nil)
}

func (p *Pipeline) RunWithProgress(ctx context.Context, in *assessment.Input, progress StageProgressFn) (Result, error) {
	res := Result{Metadata: RunMetadata{StartedAt: p.now(), StageDurations: map[string]time.Duration{}}}

	if err := in.ValidateForGeneration(); err != nil {
		return res, &StageError{Stage: "validate", Err: err}
	}
	in.Freeze(p.now())
	p.persistAssessment(in, &res)

	p.stage(&res, progress, "infer", "Inferring business context...", func() error {
		res.Inference = inference.Infer(in)
		return nil
	})

	var researchErr error
	p.stage(&res, progress, "research", "Retrieving intelligence and running research...", func() error {
		findings, err := p.orchestrator.Execute(ctx, in)
		res.Findings = findings
		if err != nil && len(findings.Package.Tools) == 0 && findings.Package.Source == "" {
			// Nothing retrieved at all: total misconfiguration.
			return err
		}
		researchErr = err
		return nil
	})
	if researchErr != nil {
		// Degraded: the draft package carries on without augmentation.
		res.Metadata.ResearchError = researchErr.Error()
	}
	if len(res.Metadata.StagesExecuted) < 2 {
		return res, &StageError{Stage: "research", Err: fmt.Errorf("no intelligence available for assessment %s", in.ID)}
	}

	p.stage(&res, progress, "synthesize", "Synthesizing report...", func() error {
		res.Report = p.synthesizer.Synthesize(ctx, in, res.Findings, res.Inference)
		return nil
	})
	res.Metadata.UsedSimulated = res.Findings.UsedSimulated
	res.Metadata.SynthesisPath = res.Report.Path

	p.stage(&res, progress, "format", "Formatting HTML...", func() error {
		res.HTML = htmlreport.Format(res.Report)
		return nil
	})

	p.persistReport(&res)
	res.Metadata.CompletedAt = p.now()
	log.Printf("pipeline run_complete assessment=%s report=%s path=%s source=%s research_err=%q",
		in.ID, res.Report.ID, res.Report.Path, res.Report.Source, res.Metadata.ResearchError)
	return res, nil
}

// stage times one step. A returned error aborts nothing here; the only
// aborting stage (research with an empty package) is handled by the caller
// via StagesExecuted.
func (p *Pipeline) stage(res *Result, progress StageProgressFn, name, message string, fn func() error) {
	if progress != nil {
		progress(name, message)
	}
	start := p.now()
	if err := fn(); err != nil {
		res.Metadata.StageDurations[name] = p.now().Sub(start)
		log.Printf("pipeline stage_failed stage=%s err=%v", name, err)
		return
	}
	res.Metadata.StageDurations[name] = p.now().Sub(start)
	res.Metadata.StagesExecuted = append(res.Metadata.StagesExecuted, name)
}

func (p *Pipeline) persistAssessment(in *assessment.Input, res *Result) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveAssessment(in); err != nil {
		res.Metadata.PersistError = err.Error()
		log.Printf("pipeline persist_assessment_failed assessment=%s err=%v", in.ID, err)
	}
}

func (p *Pipeline) persistReport(res *Result) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveReport(res.Report, res.HTML); err != nil {
		res.Metadata.PersistError = err.Error()
		log.Printf("pipeline persist_report_failed report=%s err=%v", res.Report.ID, err)
	}
}

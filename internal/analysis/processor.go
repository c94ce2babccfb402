package analysis

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/franckalain/foodlens/internal/models"
)

// DefaultStepInterval is how long each progress step is shown
const DefaultStepInterval = 1500 * time.Millisecond

// Steps are the progress labels shown while an analysis is in flight
var Steps = []string{
	"Analyzing image...",
	"Identifying ingredients...",
	"Calculating nutrition...",
}

// Step is one progress indicator update
type Step struct {
	Index int    `json:"step"`
	Label string `json:"label"`
}

// Processor runs the analysis request next to a purely cosmetic progress ticker
type Processor struct {
	analyzer Analyzer
	interval time.Duration
}

// NewProcessor creates a processor; interval <= 0 uses DefaultStepInterval
func NewProcessor(analyzer Analyzer, interval time.Duration) *Processor {
	if interval <= 0 {
		interval = DefaultStepInterval
	}
	return &Processor{analyzer: analyzer, interval: interval}
}

// Run sends the captured image and reports progress steps through onStep
// until the response arrives. The ticker never delays the result, and the
// request is not aborted when ctx is cancelled; only the ticker stops.
func (p *Processor) Run(ctx context.Context, img models.CapturedImage, onStep func(Step)) models.AnalysisResult {
	done := make(chan struct{})
	var result models.AnalysisResult

	var g errgroup.Group
	g.Go(func() error {
		p.tick(ctx, done, onStep)
		return nil
	})
	g.Go(func() error {
		defer close(done)
		result = p.analyzer.Analyze(context.WithoutCancel(ctx), img.EncodedPayload)
		return nil
	})
	_ = g.Wait()

	return result
}

func (p *Processor) tick(ctx context.Context, done <-chan struct{}, onStep func(Step)) {
	if onStep == nil {
		return
	}

	step := 0
	onStep(Step{Index: step, Label: Steps[step]})

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Hold on the last step until the response arrives
			if step < len(Steps)-1 {
				step++
				onStep(Step{Index: step, Label: Steps[step]})
			}
		}
	}
}

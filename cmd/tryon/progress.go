package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/mhpenta/tryon"
)

// progressPrinter writes one line per attempt and retry.
type progressPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) AttemptFinished(_ context.Context, e tryon.AttemptEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s %s (%s, %s): %s\n",
		tryon.StatusMessage(e.Attempt, e.MaxRetries),
		e.Model, e.APIVersion, e.Variant, e.Kind)
}

func (p *progressPrinter) BackoffScheduled(_ context.Context, e tryon.BackoffEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "Retrying %s in %.1fs\n", e.Model, e.Delay.Seconds())
}

func (p *progressPrinter) GenerationFinished(context.Context, tryon.FinishEvent) {}

package tryon

import "context"

type nopObserver struct{}

func (nopObserver) AttemptFinished(context.Context, AttemptEvent) {}
func (nopObserver) BackoffScheduled(context.Context, BackoffEvent) {}
func (nopObserver) GenerationFinished(context.Context, FinishEvent) {}

// Observers fans events out to every non-nil observer in order.
func Observers(observers ...Observer) Observer {
	list := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) AttemptFinished(ctx context.Context, event AttemptEvent) {
	for _, o := range m {
		o.AttemptFinished(ctx, event)
	}
}

func (m multiObserver) BackoffScheduled(ctx context.Context, event BackoffEvent) {
	for _, o := range m {
		o.BackoffScheduled(ctx, event)
	}
}

func (m multiObserver) GenerationFinished(ctx context.Context, event FinishEvent) {
	for _, o := range m {
		o.GenerationFinished(ctx, event)
	}
}

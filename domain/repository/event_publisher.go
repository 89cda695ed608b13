package repository

import (
	"context"
	"errors"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
)

type fanoutPublisher struct {
	publishers []IDurationEventPublisher
}

// NewFanoutPublisher delivers every event to all non-nil publishers and
// joins their errors. It returns nil when none are given.
func NewFanoutPublisher(publishers ...IDurationEventPublisher) IDurationEventPublisher {
	var active []IDurationEventPublisher
	for _, p := range publishers {
		if p != nil {
			active = append(active, p)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return &fanoutPublisher{publishers: active}
}

func (f *fanoutPublisher) PublishDurationChanged(ctx context.Context, event model.DurationChangedEvent) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.PublishDurationChanged(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

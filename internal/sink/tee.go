package sink

import (
	"context"
	"errors"

	"github.com/newbizpulse/sunbiz-crawler/internal/registry"
)

// Tee fans every record out to all configured sinks. An error from one sink
// does not stop delivery to the others; Keep returns the joined errors.
type Tee struct {
	sinks []registry.Sink
}

// NewTee builds a Tee over sinks.
func NewTee(sinks ...registry.Sink) *Tee {
	return &Tee{sinks: sinks}
}

// Keep delivers rec to every sink.
func (t *Tee) Keep(ctx context.Context, rec registry.Record) error {
	var errs []error
	for _, s := range t.sinks {
		if err := s.Keep(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (t *Tee) Close(ctx context.Context) error {
	var errs []error
	for _, s := range t.sinks {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

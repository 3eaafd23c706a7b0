package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nainya/hashstore/pkg/meta"
)

// Recorder receives facade level measurements
type Recorder interface {
	RecordRepoOperation(operation, namespace, status string, duration time.Duration)
	RecordIndexMutation(namespace, action string, count int)
	RecordTTLResolution(namespace, source string)
}

type nopRecorder struct{}

func (nopRecorder) RecordRepoOperation(string, string, string, time.Duration) {}
func (nopRecorder) RecordIndexMutation(string, string, int)                   {}
func (nopRecorder) RecordTTLResolution(string, string)                        {}

type options struct {
	registry *meta.Registry
	log      zerolog.Logger
	recorder Recorder
	newID    func() string
}

func defaultOptions() options {
	return options{
		registry: meta.Default,
		log:      zerolog.Nop(),
		recorder: nopRecorder{},
		newID:    uuid.NewString,
	}
}

// Option configures a Repository
type Option func(*options)

// WithRegistry resolves metadata from r instead of meta.Default
func WithRegistry(r *meta.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithLogger sets the logger shared by the repository and its helpers
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithRecorder reports operation outcomes to rec
func WithRecorder(rec Recorder) Option {
	return func(o *options) {
		if rec != nil {
			o.recorder = rec
		}
	}
}

// WithIDGenerator replaces the random UUID identifier generator
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}

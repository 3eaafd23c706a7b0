// ABOUTME: Expiration policy resolution for a save
// ABOUTME: Instance accessor first, then the type default, else no expiry

package ttl

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nainya/hashstore/pkg/meta"
)

// Source says where an expiration came from
type Source uint8

const (
	SourceNone Source = iota
	SourceInstance
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceInstance:
		return "instance"
	case SourceDefault:
		return "default"
	default:
		return "none"
	}
}

// Policy is the resolved expiration of one record
type Policy struct {
	Duration time.Duration
	Source   Source
}

// Expires reports whether an expiration has to be applied
func (p Policy) Expires() bool {
	return p.Source != SourceNone
}

// Resolve computes the expiration of rec.
//
// The instance accessor wins when it yields a positive duration. An accessor
// that errors, panics, uses an unknown unit, overflows, or returns a
// non-positive amount falls through to the type default.
func Resolve[T any](rec *T, m *meta.Metadata[T], log zerolog.Logger) Policy {
	if m.TimeToLive != nil {
		d, err := fromInstance(rec, m.TimeToLive)
		switch {
		case err != nil:
			log.Debug().
				Str("component", "ttl").
				Str("namespace", m.Namespace).
				Err(err).
				Msg("Instance TTL unavailable, trying type default")
		case d <= 0:
			log.Debug().
				Str("component", "ttl").
				Str("namespace", m.Namespace).
				Dur("ttl", d).
				Msg("Non-positive instance TTL ignored, trying type default")
		default:
			log.Debug().
				Str("component", "ttl").
				Str("namespace", m.Namespace).
				Dur("ttl", d).
				Msg("Instance TTL will be used")
			return Policy{Duration: d, Source: SourceInstance}
		}
	}

	if m.DefaultTTL > 0 {
		log.Debug().
			Str("component", "ttl").
			Str("namespace", m.Namespace).
			Dur("ttl", m.DefaultTTL).
			Msg("Type default TTL will be used")
		return Policy{Duration: m.DefaultTTL, Source: SourceDefault}
	}

	return Policy{Source: SourceNone}
}

func fromInstance[T any](rec *T, accessor func(*T) (meta.Expiration, error)) (d time.Duration, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("ttl accessor panicked: %v", p)
		}
	}()

	exp, err := accessor(rec)
	if err != nil {
		return 0, err
	}
	return exp.Duration()
}

package queryset

import "time"

// Option configures a QuerySet. Options carry over to every derived set.
type Option func(*options)

type options struct {
	timeout  time.Duration
	observer Observer
}

func defaultOptions() options {
	return options{observer: nopObserver{}}
}

// WithTimeout bounds every backend call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithObserver reports executions and cache hits to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

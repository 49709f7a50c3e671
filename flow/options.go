package flow

import "github.com/flowrun/flowrun/metrics"

// Option configures a Root at construction time, the same functional
// options style the rest of the corpus uses for its engine configuration.
type Option func(*Root)

// WithDefaultSandboxImage sets the base image DefaultSandboxCreator starts
// sandboxes from.
func WithDefaultSandboxImage(image string) Option {
	return func(r *Root) {
		r.DefaultSandboxImage = image
	}
}

// WithMaxParallelJobs records a hint for a future parallel scheduler. The
// shipped engine always runs a single-goroutine DFS; this is accepted so
// callers don't need to change call sites once parallel scheduling lands.
func WithMaxParallelJobs(n int) Option {
	return func(r *Root) {
		r.MaxParallelJobs = n
	}
}

// WithMetrics attaches a Collector that Job terminal transitions and cache
// hit/miss outcomes are recorded against.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Root) {
		r.Metrics = c
	}
}

// WithOutlets registers every entry of outlets on the Root.
func WithOutlets(outlets map[string]*Job) Option {
	return func(r *Root) {
		for name, job := range outlets {
			r.AddOutlet(name, job)
		}
	}
}

package tsdb

import (
	"github.com/dd0wney/enod/pkg/logging"
	"github.com/dd0wney/enod/pkg/metrics"
	"github.com/dd0wney/enod/pkg/record"
	"github.com/dd0wney/enod/pkg/validation"
)

// SyncMode controls whether mutating operations fsync before returning.
type SyncMode string

const (
	// SyncAlways fsyncs data and header at the end of every mutation.
	SyncAlways SyncMode = "always"
	// SyncNone leaves durability to the OS. Crash consistency still holds
	// for process crashes but not for power loss.
	SyncNone SyncMode = "none"
)

// DefaultScanBufferSize is the read size used by range scans and compaction:
// 7281 whole record slots, just under 64 KiB.
const DefaultScanBufferSize = (64 * 1024 / record.Size) * record.Size

// Options configures an Engine.
type Options struct {
	Logger         logging.Logger
	Metrics        *metrics.Registry // nil disables metrics
	Sync           SyncMode
	ScanBufferSize int
	VerifyOnOpen   bool
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics reports engine operations to r.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *Options) { o.Metrics = r }
}

// WithSync sets the sync mode.
func WithSync(mode SyncMode) Option {
	return func(o *Options) { o.Sync = mode }
}

// WithScanBufferSize sets the read size for range scans and compaction. It
// must be a positive multiple of the record size.
func WithScanBufferSize(n int) Option {
	return func(o *Options) { o.ScanBufferSize = n }
}

// WithVerifyOnOpen runs a full ordering check after the consistency check.
func WithVerifyOnOpen(v bool) Option {
	return func(o *Options) { o.VerifyOnOpen = v }
}

func buildOptions(opts []Option) (Options, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	if o.Logger == nil {
		o.Logger = logging.DefaultLogger()
	}
	o.Logger = o.Logger.With(logging.Component("tsdb"))
	o.Sync = validation.DefaultOr(o.Sync, SyncAlways)
	o.ScanBufferSize = validation.DefaultOr(o.ScanBufferSize, DefaultScanBufferSize)

	err := validation.NewConfigValidator("Options").
		OneOf("Sync", string(o.Sync), []string{string(SyncAlways), string(SyncNone)}).
		MinInt("ScanBufferSize", o.ScanBufferSize, record.Size).
		MultipleOf("ScanBufferSize", o.ScanBufferSize, record.Size).
		Validate()
	return o, err
}

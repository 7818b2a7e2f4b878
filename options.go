package linerotate

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Options is supplied as the optional arguments for New.
type Options struct {
	clock      Clock                 // used to determine the current time
	monotonic  func() time.Duration  // used by the epoch stamp
	logger     *zap.Logger           // receives non-fatal warnings
	registerer prometheus.Registerer // nil means metrics stay unregistered
	maxLines   int                   // max completed lines per segment
	maxFiles   int                   // max segments, active one included
	append     bool                  // resume into the existing active segment
	datetime   bool                  // local datetime stamp per line
	epoch      bool                  // monotonic stamp per line
	perm       os.FileMode           // permission of newly created segments
}

// Option is the functional option type.
type Option func(*Options)

// Default values
const (
	DefaultFilename = "log.log"
	DefaultMaxLines = 10000
	DefaultMaxFiles = 10
)

func newDefaultOptions() *Options {
	return &Options{
		clock:     DefaultClock,
		monotonic: monotonicNow,
		logger:    zap.NewNop(),
		maxLines:  DefaultMaxLines,
		maxFiles:  DefaultMaxFiles,
		perm:      0644,
	}
}

func parseOptions(setters ...Option) *Options {
	// default Options
	opts := newDefaultOptions()
	for _, setter := range setters {
		setter(opts)
	}
	return opts
}

// WithClock specifies the clock used to stamp lines with the local
// datetime. It defaults to the system clock with time.Now.
func WithClock(clock Clock) Option {
	return func(opts *Options) {
		if clock != nil {
			opts.clock = clock
		}
	}
}

// WithMonotonicSource overrides the source of the epoch stamp. The
// function returns the time elapsed on a monotonic clock.
//
// Default: CLOCK_MONOTONIC where available, process uptime otherwise.
func WithMonotonicSource(fn func() time.Duration) Option {
	return func(opts *Options) {
		if fn != nil {
			opts.monotonic = fn
		}
	}
}

// WithLogger sets the logger that receives warnings, such as a failed
// flush after a line or a failed close while rotating.
//
// Default: zap.NewNop()
func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithRegisterer registers the Writer's counters with reg.
//
// Default: nil, counters are kept but not registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(opts *Options) {
		opts.registerer = reg
	}
}

// WithMaxLines sets the number of completed lines a segment holds
// before the next line starts a new one.
//
// Default: 10000
func WithMaxLines(n int) Option {
	return func(opts *Options) {
		opts.maxLines = n
	}
}

// WithMaxFiles sets the maximum number of segments kept on disk,
// the active one included.
//
// Default: 10
func WithMaxFiles(n int) Option {
	return func(opts *Options) {
		opts.maxFiles = n
	}
}

// WithAppend resumes writing into the existing active segment instead
// of rotating it away on open.
//
// Default: false
func WithAppend(v bool) Option {
	return func(opts *Options) {
		opts.append = v
	}
}

// WithDatetimeStamp prefixes every line with the local datetime, like
// "[2006-01-02 15:04:05.000000]: ".
//
// Default: false
func WithDatetimeStamp(v bool) Option {
	return func(opts *Options) {
		opts.datetime = v
	}
}

// WithEpochStamp prefixes every line with the monotonic clock reading,
// like "[12345.678901]: ". When combined with WithDatetimeStamp both
// prefixes are written, datetime first.
//
// Default: false
func WithEpochStamp(v bool) Option {
	return func(opts *Options) {
		opts.epoch = v
	}
}

// WithPermission sets the permission bits of newly created segments.
//
// Default: 0644
func WithPermission(perm os.FileMode) Option {
	return func(opts *Options) {
		opts.perm = perm
	}
}

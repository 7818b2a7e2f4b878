package linerotate

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lestrrat-go/strftime"
)

// datetimePattern renders "[YYYY-MM-DD HH:MM:SS.ffffff]: " in local time.
const datetimePattern = "[%Y-%m-%d %H:%M:%S.%f]: "

// microseconds appends the zero padded microseconds of t, the "%f"
// conversion of datetimePattern.
var microseconds = strftime.AppendFunc(func(b []byte, t time.Time) []byte {
	us := t.Nanosecond() / int(time.Microsecond)
	return appendPadded(b, us, 6)
})

// stampFunc returns the prefix written at the start of every line.
type stampFunc func() string

// newStamps builds the line prefixes enabled in opts, in the order they
// are written.
func newStamps(opts *Options) ([]stampFunc, error) {
	var stamps []stampFunc
	if opts.datetime {
		fn, err := datetimeStamp(opts.clock)
		if err != nil {
			return nil, err
		}
		stamps = append(stamps, fn)
	}
	if opts.epoch {
		stamps = append(stamps, epochStamp(opts.monotonic))
	}
	return stamps, nil
}

func datetimeStamp(clock Clock) (stampFunc, error) {
	pattern, err := strftime.New(datetimePattern, strftime.WithSpecification('f', microseconds))
	if err != nil {
		return nil, fmt.Errorf("invalid datetime stamp pattern: %w", err)
	}
	return func() string {
		return pattern.FormatString(clock.Now().Local())
	}, nil
}

// epochStamp renders "[seconds.ffffff]: " from a monotonic reading.
func epochStamp(monotonic func() time.Duration) stampFunc {
	return func() string {
		d := monotonic()
		sec := int64(d / time.Second)
		us := int((d % time.Second) / time.Microsecond)

		b := make([]byte, 0, 32)
		b = append(b, '[')
		b = strconv.AppendInt(b, sec, 10)
		b = append(b, '.')
		b = appendPadded(b, us, 6)
		b = append(b, "]: "...)
		return string(b)
	}
}

// appendPadded appends n left padded with zeros to width digits.
func appendPadded(b []byte, n, width int) []byte {
	s := strconv.Itoa(n)
	for i := len(s); i < width; i++ {
		b = append(b, '0')
	}
	return append(b, s...)
}

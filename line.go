package linerotate

// lineTerminator marks the end of a logical line.
const lineTerminator = '\n'

// lineState tracks whether the next byte written starts a new line.
// The zero value is atLineStart, so the first byte of a run always
// starts a line.
type lineState uint8

const (
	atLineStart lineState = iota
	midLine
)

// next returns the state after b has been written and whether b
// completed a line.
func (s lineState) next(b byte) (lineState, bool) {
	if b == lineTerminator {
		return atLineStart, true
	}
	return midLine, false
}

func (s lineState) String() string {
	switch s {
	case atLineStart:
		return "at-line-start"
	case midLine:
		return "mid-line"
	default:
		return "unknown"
	}
}

package linerotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_lineState_next(t *testing.T) {
	var s lineState
	assert.Equal(t, atLineStart, s, "a fresh run starts at a line start")

	tests := []struct {
		from          lineState
		b             byte
		want          lineState
		wantCompleted bool
	}{
		{atLineStart, 'a', midLine, false},
		{atLineStart, '\n', atLineStart, true},
		{midLine, 'a', midLine, false},
		{midLine, '\n', atLineStart, true},
		{midLine, '\r', midLine, false},
	}
	for _, tt := range tests {
		got, completed := tt.from.next(tt.b)
		assert.Equal(t, tt.want, got, "%s + %q", tt.from, tt.b)
		assert.Equal(t, tt.wantCompleted, completed, "%s + %q", tt.from, tt.b)
	}
}

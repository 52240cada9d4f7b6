package logging

import (
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
)

func TestNew_Levels(t *testing.T) {
	assert.Equal(t, log.DebugLevel, New("debug").Level)
	assert.Equal(t, log.WarnLevel, New("warn").Level)
	assert.Equal(t, log.InfoLevel, New("").Level)
}

func TestOrNop(t *testing.T) {
	l := New("info")
	assert.Same(t, l, OrNop(l))
	assert.Equal(t, log.PanicLevel, OrNop(nil).Level)
}

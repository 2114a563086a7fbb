package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCommand(t *testing.T) {
	for _, cmd := range []string{CommandStart, CommandStop, CommandRestart} {
		assert.True(t, ValidCommand(cmd), cmd)
	}
	for _, cmd := range []string{"", "terminate", "Start", "reboot"} {
		assert.False(t, ValidCommand(cmd), cmd)
	}
}

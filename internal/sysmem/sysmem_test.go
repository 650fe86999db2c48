package sysmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudget(t *testing.T) {
	mem, ok := Total()
	if !ok {
		mem = FallbackBytes
	}
	assert.Equal(t, int64(float64(mem)*0.5), Budget(0.5))
	assert.Equal(t, int64(0), Budget(0))
}

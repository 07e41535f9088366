package projects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMethodNameConversion(t *testing.T) {
	assert.Equal(t, "spectral-analysis", WireMethodName("spectral_analysis"))
	assert.Equal(t, "spectral_analysis", StorageMethodName("spectral-analysis"))
	assert.Equal(t, "plain", WireMethodName("plain"))
	assert.Equal(t, "plain", StorageMethodName("plain"))
}

package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, APIVersion, info.APIVersion)
	assert.Equal(t, runtime.GOOS, info.OS)

	s := info.String()
	assert.Contains(t, s, "taxipulse v"+Version)
	assert.Contains(t, s, info.GitCommit)
}

package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullInfo(t *testing.T) {
	info := FullInfo()
	assert.True(t, strings.HasPrefix(info, "relex "+Version))
	assert.Contains(t, info, GitCommit)
	assert.Equal(t, Version, Info())
}

func TestBuildIDStable(t *testing.T) {
	first := BuildID()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, BuildID())
}

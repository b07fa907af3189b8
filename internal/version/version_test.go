package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		current    string
		constraint string
		want       bool
	}{
		{"0.3.0", ">= 0.2", true},
		{"0.3.0", ">= 0.2, < 0.3", false},
		{"1.2.3", "~> 1.2", true},
		{"v0.3.0", "0.3.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.current+" "+tt.constraint, func(t *testing.T) {
			ok, err := Check(tt.current, tt.constraint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	_, err := Check("not-a-version", ">= 1")
	assert.Error(t, err)
	_, err = Check("1.0.0", "!!")
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, "entql "+Version+" ("+info.Platform+", "+info.GoVersion+")", info.String())
	assert.Contains(t, info.FullString(), "commit:   "+GitCommit)
	assert.Contains(t, info.Dialects, "postgres")
	assert.Contains(t, info.Dialects, "sqlite")
}

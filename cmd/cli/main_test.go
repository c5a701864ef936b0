package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/flow-atlas/pkg/config"
)

func TestDefaultTimezoneWithoutSystemZoneinfo(t *testing.T) {
	// Given a host where no zoneinfo database can be found
	t.Setenv("ZONEINFO", filepath.Join(t.TempDir(), "missing.zip"))

	// When the default configuration resolves its schedule zone
	cfg, err := config.Load("")
	require.NoError(t, err)
	loc, err := cfg.Location()

	// Then the embedded database still answers
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", loc.String())
	_, offset := time.Date(2026, 2, 11, 21, 0, 0, 0, loc).Zone()
	assert.Equal(t, 8*3600, offset)
}

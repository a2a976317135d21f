package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"sync", "watch", "list", "export", "cache", "runs", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}

	var runsSub []string
	for _, c := range runsCmd.Commands() {
		runsSub = append(runsSub, c.Name())
	}
	assert.ElementsMatch(t, []string{"clear", "status", "list", "export", "migrate"}, runsSub)
}

func TestSQLiteFilePath(t *testing.T) {
	assert.Equal(t, "/tmp/custom.db", sqliteFilePath("/tmp/custom.db", "/home/me/.catalogsync_cache.db"))
	assert.Equal(t, "/home/me/.catalogsync_cache.db", sqliteFilePath("", "/home/me/.catalogsync_cache.db"))
}

func TestMigrateFlagsAreLocal(t *testing.T) {
	for _, c := range []struct {
		name string
		def  string
	}{
		{cacheMigrateCmd.Name(), cacheMigrateCmd.Flags().Lookup("target-version").DefValue},
		{runsMigrateCmd.Name(), runsMigrateCmd.Flags().Lookup("target-version").DefValue},
	} {
		assert.Equal(t, "-1", c.def, c.name)
	}
}

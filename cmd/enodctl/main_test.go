package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dd0wney/enod/pkg/config"
	"github.com/dd0wney/enod/pkg/logging"
	"github.com/dd0wney/enod/pkg/tsdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ctl runs enodctl against file and returns its stdout.
func ctl(t *testing.T, file string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"-file", file, "-log-level", "error"}, args...)
	err := run(full, &stdout, &stderr)
	return stdout.String(), err
}

func mustCtl(t *testing.T, file string, args ...string) string {
	t.Helper()
	out, err := ctl(t, file, args...)
	require.NoError(t, err, "enodctl %v", args)
	return out
}

func TestLifecycle(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	file := filepath.Join(t.TempDir(), "series.enod")

	mustCtl(t, file, "create")
	assert.Contains(t, mustCtl(t, file, "insert", "100", "7", "100", "9", "150", "3"), "inserted 3")

	assert.Equal(t, "(100, 7)\n", mustCtl(t, file, "get", "100"))
	assert.Equal(t, "(100, 7)\n(100, 9)\n(150, 3)\n", mustCtl(t, file, "range", "100", "150"))

	_, err := ctl(t, file, "insert", "90", "1")
	assert.Error(t, err)

	info := mustCtl(t, file, "info")
	assert.Contains(t, info, "records:     3")
	assert.Contains(t, info, "range:       [100, 150]")

	assert.Contains(t, mustCtl(t, file, "trim-before", "150"), "trimmed 2")
	assert.Contains(t, mustCtl(t, file, "compact"), "compacted")
	assert.Contains(t, mustCtl(t, file, "verify"), "ok: 1 records in [150, 150]")

	assert.Contains(t, mustCtl(t, file, "trim", "5"), "trimmed 1")
	assert.Contains(t, mustCtl(t, file, "info"), "range:       empty")
}

func TestBackupRestoreFile(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	dir := t.TempDir()
	src := filepath.Join(dir, "src.enod")
	dst := filepath.Join(dir, "dst.enod")
	snap := filepath.Join(dir, "snap.enbk")

	mustCtl(t, src, "create")
	mustCtl(t, src, "insert", "1", "10", "2", "20", "3", "30")

	assert.Contains(t, mustCtl(t, src, "backup", "-out", snap), "wrote 3")
	assert.Contains(t, mustCtl(t, dst, "restore", "-in", snap), "restored 3")
	assert.Equal(t, mustCtl(t, src, "range", "0", "10"), mustCtl(t, dst, "range", "0", "10"))
}

func TestWriteSnapshot_RemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	db, err := tsdb.Create(filepath.Join(dir, "src.enod"), tsdb.WithLogger(logging.NewNopLogger()))
	require.NoError(t, err)
	require.NoError(t, db.Insert(1, 10))
	// Reading samples from a closed engine fails after the manifest went out
	require.NoError(t, db.Close())

	snap := filepath.Join(dir, "snap.enbk")
	_, err = writeSnapshot(snap, db)
	require.ErrorIs(t, err, tsdb.ErrClosed)

	_, statErr := os.Stat(snap)
	assert.True(t, os.IsNotExist(statErr), "partial snapshot should be removed")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "from-config.enod")
	cfgPath := filepath.Join(dir, "enod.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data_file: "+file+"\nsync: none\nlog_level: error\n"), 0644))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-config", cfgPath, "create"}, &stdout, &stderr))

	_, err := os.Stat(file)
	assert.NoError(t, err)
}

func TestErrors(t *testing.T) {
	t.Setenv(config.EnvPath, "")
	file := filepath.Join(t.TempDir(), "series.enod")
	mustCtl(t, file, "create")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"get without timestamp", []string{"get"}},
		{"bad timestamp", []string{"get", "soon"}},
		{"value out of range", []string{"insert", "1", "256"}},
		{"odd insert args", []string{"insert", "1"}},
		{"missing sample", []string{"get", "42"}},
		{"backup without target", []string{"backup"}},
		{"backup with both targets", []string{"backup", "-out", "x", "-s3", "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ctl(t, file, tt.args...)
			assert.Error(t, err)
		})
	}

	var stdout, stderr bytes.Buffer
	assert.Error(t, run([]string{"info"}, &stdout, &stderr), "no data file configured")
	assert.Error(t, run(nil, &stdout, &stderr))
}

func TestHelpAndVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"help"}, &stdout, &stderr))
	assert.True(t, strings.Contains(stdout.String(), "trim-before"))

	stdout.Reset()
	require.NoError(t, run([]string{"version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), version)
}

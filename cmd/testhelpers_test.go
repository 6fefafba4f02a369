package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const postsCSV = "Nome;Data;Total de Interações;Visualizações;Curtidas;Comentários;URL;Partido\n" +
	"Ana;2024-01-01;1.000;10.000;800;200;https://www.instagram.com/p/1;PT\n" +
	"Bia;2024-01-02;500;;300;100;https://x.com/bia/status/1;PL\n" +
	"@ana;2024-01-02;250;2.000;200;50;https://www.tiktok.com/@ana/video/9;PT\n"

// writeTestFile writes content to name in a temp dir and returns its path.
func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// resetFlags restores every package-level flag to its default so commands
// can run back to back.
func resetFlags() {
	sourceFlag, delimiterFlag = "", ""
	formatFlag = formatJSON
	leadersTop = 0
	tableFilters, tableSort, tableDesc = nil, "", false
	tablePage, tablePageSize = 1, 0
	reportTop, reportPageSize = 0, 0
	servePort = 0
}

// executeCommand runs the root command with args and returns its stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

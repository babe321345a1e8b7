package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	halt := write("halt.s", "HALT\n")
	fault := write("fault.s", "LDI r1, 99\nVSET r0, r0, r1\n")
	broken := write("broken.sn50", "SN50\x07\x00\x00\x00")
	badAsm := write("bad.s", "LDI r1\n")

	type testArgs struct {
		args     []string
		wantCode int
		wantErr  string
	}

	testDo := func(t *testing.T, in testArgs) {
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		code := run(in.args, stdout, stderr)
		assert.Equal(t, in.wantCode, code, stderr.String())
		assert.Contains(t, stderr.String(), in.wantErr)
	}

	t.Run("clean halt", func(t *testing.T) {
		testDo(t, testArgs{args: []string{"-headless", "-ticks", "3", halt}, wantCode: exitOK})
	})
	t.Run("help", func(t *testing.T) {
		testDo(t, testArgs{args: []string{"-h"}, wantCode: exitOK, wantErr: "usage: sn50"})
	})
	t.Run("no cartridge", func(t *testing.T) {
		testDo(t, testArgs{args: []string{"-headless"}, wantCode: exitFailure, wantErr: "usage: sn50"})
	})
	t.Run("unknown flag", func(t *testing.T) {
		testDo(t, testArgs{args: []string{"-turbo", halt}, wantCode: exitFailure})
	})
	t.Run("inconsistent flags", func(t *testing.T) {
		testDo(t, testArgs{args: []string{"-screenshot", "x.png", halt}, wantCode: exitFailure, wantErr: "-screenshot needs -headless"})
	})
	t.Run("bad version", func(t *testing.T) {
		testDo(t, testArgs{args: []string{"-headless", "-ticks", "1", broken}, wantCode: exitLoad, wantErr: "unsupported version"})
	})
	t.Run("bad assembly", func(t *testing.T) {
		testDo(t, testArgs{args: []string{"-headless", "-ticks", "1", badAsm}, wantCode: exitLoad, wantErr: "doesn't assemble: line 1"})
	})
	t.Run("missing file", func(t *testing.T) {
		testDo(t, testArgs{args: []string{"-headless", "-ticks", "1", filepath.Join(dir, "none.sn50")}, wantCode: exitLoad})
	})
	t.Run("trap", func(t *testing.T) {
		testDo(t, testArgs{args: []string{"-headless", "-ticks", "5", fault}, wantCode: exitTrap, wantErr: "memory fault at $0004 (VSET)"})
	})
}

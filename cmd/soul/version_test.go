package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommandExists(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
}

func TestPrintVersion(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version = "0.1.0-test"
	GitCommit = "abc123"

	var buf bytes.Buffer
	printVersion(&buf)

	for _, want := range []string{"Soul Gateway 0.1.0-test", "Git Commit: abc123", "Go Version: go"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("printVersion() output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestRootCommands(t *testing.T) {
	want := []string{"run", "validate", "snapshot", "register", "version"}
	for _, name := range want {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			if err != nil || cmd.Name() != name {
				t.Errorf("rootCmd.Find(%q) = %v, %v", name, cmd, err)
			}
		})
	}
}

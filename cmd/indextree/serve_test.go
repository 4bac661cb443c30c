package main

import (
	"strings"
	"testing"

	"github.com/nao1215/indextree/internal/config"
)

func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()

	if cmd.Use != "serve" {
		t.Errorf("expected use 'serve', got %q", cmd.Use)
	}
	listen := cmd.Flags().Lookup("listen")
	if listen == nil || listen.DefValue != config.DefaultListen {
		t.Errorf("unexpected listen flag: %+v", listen)
	}
	for _, name := range []string{"output-dir", "format", "template-dir", "max-depth", "cycle", "db-dir"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, "", "serve", "--format", "pdf", "--db-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("expected format error, got %v", err)
	}
}

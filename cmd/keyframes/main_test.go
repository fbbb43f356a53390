package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	app := newApp()
	var buf bytes.Buffer
	app.Writer = &buf

	if err := app.Run([]string{"keyframes", "version"}); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(buf.String(), version) {
		t.Errorf("expected version %q in output, got %q", version, buf.String())
	}
}

func TestExtractCommandFlags(t *testing.T) {
	app := newApp()

	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	if strings.Join(names, ",") != "extract,version" {
		t.Fatalf("unexpected commands %v", names)
	}

	want := map[string]bool{
		"output": true, "contact-sheet": true, "columns": true, "summary": true,
		"width": true, "height": true, "workers": true, "timeout": true,
		"stdin": true, "config": true, "log-level": true, "log-format": true, "quiet": true,
	}
	for _, f := range app.Commands[0].Flags {
		delete(want, f.Names()[0])
	}
	if len(want) != 0 {
		t.Errorf("missing flags: %v", want)
	}
}

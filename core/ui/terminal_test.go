package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	w.Success("saved %d", 2)
	w.Warning("careful")
	w.Error("%s: %s", "email", "invalid")
	w.Info("fyi")

	want := "✓ saved 2\n⚠ careful\n✗ email: invalid\nℹ fyi\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestColorAndVerbosity(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false)
	w.Success("ok")
	if !strings.Contains(buf.String(), Green) {
		t.Error("expected colored output")
	}

	buf.Reset()
	w.SetVerbosity(0)
	w.Info("hidden")
	w.Detail("hidden")
	w.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("quiet writer printed %q", buf.String())
	}

	w.SetVerbosity(2)
	w.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("verbose writer hid debug output")
	}
}

func TestField(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, true).Field("Payment", "Will provide later")
	if buf.String() != "Payment:  Will provide later\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestTableAlignsMultibyteCells(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)
	tbl := w.NewTable("ID", "PRICE")
	tbl.AddRow("a", "¥29,850")
	tbl.AddRow("longer-id", "$1", "dropped")
	tbl.Render()

	if tbl.Len() != 2 {
		t.Errorf("Len = %d", tbl.Len())
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "ID        │ PRICE" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "──────────┼────────" {
		t.Errorf("separator = %q", lines[1])
	}
	if lines[2] != "a         │ ¥29,850" {
		t.Errorf("row = %q", lines[2])
	}
	if strings.Contains(buf.String(), "dropped") {
		t.Error("extra cells should be truncated")
	}
}

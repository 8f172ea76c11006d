package cmd

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/coverageiq/coverageiq/internal/timeoff"
)

func TestPrintEntryTruncatesMessageByRunes(t *testing.T) {
	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)

	printEntry(c, &timeoff.Entry{
		Sender:         "priya",
		PersonUsername: "priya",
		Message:        strings.Repeat("é", 200),
	})

	out := buf.String()
	if !utf8.ValidString(out) {
		t.Fatal("output contains a split multibyte rune")
	}
	if strings.Contains(out, strings.Repeat("é", 121)) {
		t.Error("message not truncated to 120 characters")
	}
	if !strings.Contains(out, strings.Repeat("é", 120)) {
		t.Error("truncated message shorter than 120 characters")
	}
}

func TestPrintEntryFallbacksForMissingFields(t *testing.T) {
	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)

	printEntry(c, &timeoff.Entry{
		Sender:         "priya",
		PersonUsername: "priya",
		Message:        "ooo tomorrow",
	})

	out := buf.String()
	for _, want := range []string{"(not specified)", "(not mentioned)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

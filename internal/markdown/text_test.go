package markdown

import (
	"strings"
	"testing"
)

const article = "# Worker pools\n\nBounded **concurrency** keeps memory flat.\n\n```go\nsem := make(chan struct{}, 4)\n```\n\n<div class=\"note\">hidden</div>\n\nSee <https://go.dev>.\n"

func TestPlainText(t *testing.T) {
	got := PlainText([]byte(article))

	for _, want := range []string{"Worker pools", "Bounded concurrency keeps memory flat.", "sem := make(chan struct{}, 4)", "https://go.dev"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in plain text, got %q", want, got)
		}
	}
	if strings.Contains(got, "hidden") || strings.Contains(got, "**") {
		t.Fatalf("expected markup and HTML to be stripped, got %q", got)
	}
}

func TestSummarizeUsesDivider(t *testing.T) {
	body := []byte("First *paragraph* here.\n\n<!-- more -->\n\nRest of the post.")

	summary, truncated := Summarize(body, 2)
	if summary != "First paragraph here." || !truncated {
		t.Fatalf("unexpected manual summary %q truncated=%v", summary, truncated)
	}
}

func TestSummarizeTruncatesWords(t *testing.T) {
	summary, truncated := Summarize([]byte("one two three four"), 2)
	if summary != "one two…" || !truncated {
		t.Fatalf("unexpected summary %q truncated=%v", summary, truncated)
	}

	summary, truncated = Summarize([]byte("one two"), 5)
	if summary != "one two" || truncated {
		t.Fatalf("unexpected short summary %q truncated=%v", summary, truncated)
	}
}

func TestReadingTime(t *testing.T) {
	if got := ReadingTime(nil); got != 1 {
		t.Fatalf("expected minimum of one minute, got %d", got)
	}
	long := strings.Repeat("word ", WordsPerMinute*2+1)
	if got := ReadingTime([]byte(long)); got != 3 {
		t.Fatalf("expected 3 minutes, got %d", got)
	}
	if got := WordCount([]byte("# Title\n\ntwo words")); got != 3 {
		t.Fatalf("expected 3 words, got %d", got)
	}
}

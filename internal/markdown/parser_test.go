package markdown

import (
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

func TestGoldmarkParser_Parse(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.Parse([]byte("# Heading\n\nHello **world**"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, `<h1 id="heading">Heading</h1>`) {
		t.Fatalf("expected rendered HTML to include heading with id, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected rendered HTML to include <strong>, got %q", got)
	}
}

func TestGoldmarkParser_ParseWithOptions(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.ParseWithOptions([]byte("line one\nline two"), interfaces.ParseOptions{
		HardWraps: true,
	})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if !strings.Contains(string(html), "line one<br>") {
		t.Fatalf("expected hard wraps in HTML output, got %q", string(html))
	}
}

func TestGoldmarkParser_SafeModeDropsRawHTML(t *testing.T) {
	source := []byte("<script>alert(1)</script>\n\ntext")

	unsafe, err := NewGoldmarkParser(interfaces.ParseOptions{}).Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !strings.Contains(string(unsafe), "<script>") {
		t.Fatalf("expected raw HTML by default, got %q", unsafe)
	}

	safe, err := NewGoldmarkParser(interfaces.ParseOptions{SafeMode: true}).Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.Contains(string(safe), "<script>") {
		t.Fatalf("expected raw HTML to be omitted in safe mode, got %q", safe)
	}
}

func TestGoldmarkParser_Extensions(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{Extensions: []string{"footnote", "Table", "unknown"}})

	html, err := parser.Parse([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n\nNote[^1].\n\n[^1]: Footnote text.\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := string(html)
	if !strings.Contains(got, "<table>") {
		t.Fatalf("expected table extension, got %q", got)
	}
	if !strings.Contains(got, "footnote") {
		t.Fatalf("expected footnote extension, got %q", got)
	}
}

func TestGoldmarkParser_ReusesEnginesConcurrently(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := parser.Parse([]byte("*concurrent*")); err != nil {
				t.Errorf("Parse: %v", err)
			}
		}()
	}
	wg.Wait()

	count := 0
	parser.engines.Range(func(any, any) bool {
		count++
		return true
	})
	if count != 1 {
		t.Fatalf("expected one cached engine, got %d", count)
	}
}

func TestEngineKeyIgnoresOrderAndUnknownNames(t *testing.T) {
	a := engineKey(interfaces.ParseOptions{Extensions: []string{"table", "footnote"}})
	b := engineKey(interfaces.ParseOptions{Extensions: []string{"FOOTNOTE", "bogus", "table"}})
	if a != b {
		t.Fatalf("expected equal keys, got %q and %q", a, b)
	}
}

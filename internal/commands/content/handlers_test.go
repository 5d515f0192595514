package contentcmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blog/internal/content"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestNewDocumentHandlerScaffoldsDraft(t *testing.T) {
	dir := t.TempDir()
	handler := NewNewDocumentHandler(dir, clock, nil)

	var envelope DocumentEnvelope
	err := handler.Execute(context.Background(), NewDocumentCommand{
		Path:     "posts/error-wrapping.md",
		Tags:     []string{" GoLang "},
		Draft:    true,
		Callback: func(env DocumentEnvelope) { envelope = env },
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := filepath.Join(dir, "posts", "error-wrapping.md")
	if envelope.File != want {
		t.Fatalf("expected file %s, got %s", want, envelope.File)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read scaffold: %v", err)
	}
	doc, err := content.Parse("posts/error-wrapping.md", data)
	if err != nil {
		t.Fatalf("parse scaffold: %v", err)
	}

	got := struct {
		Title  string
		Draft  bool
		Tags   []string
		Format content.Format
		Date   time.Time
	}{doc.Title, doc.Draft, doc.Tags, doc.Format, doc.Date.UTC()}
	wantDoc := struct {
		Title  string
		Draft  bool
		Tags   []string
		Format content.Format
		Date   time.Time
	}{"Error Wrapping", true, []string{"GoLang"}, content.FormatYAML, fixedNow}
	if diff := cmp.Diff(wantDoc, got); diff != "" {
		t.Fatalf("scaffold mismatch (-want +got):\n%s", diff)
	}
}

func TestNewDocumentHandlerHonoursFormatAndTitle(t *testing.T) {
	dir := t.TempDir()
	handler := NewNewDocumentHandler(dir, clock, nil)

	err := handler.Execute(context.Background(), NewDocumentCommand{
		Path:   "posts/channels.md",
		Title:  "Channels, Explained",
		Format: "toml",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "posts", "channels.md"))
	if err != nil {
		t.Fatalf("read scaffold: %v", err)
	}
	doc, err := content.Parse("posts/channels.md", data)
	if err != nil {
		t.Fatalf("parse scaffold: %v", err)
	}
	if doc.Format != content.FormatTOML || doc.Title != "Channels, Explained" || doc.Draft {
		t.Fatalf("unexpected document: format=%s title=%q draft=%v", doc.Format, doc.Title, doc.Draft)
	}
}

func TestNewDocumentHandlerRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "posts", "hello.md")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(target, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	handler := NewNewDocumentHandler(dir, clock, nil)

	err := handler.Execute(context.Background(), NewDocumentCommand{Path: "posts/hello.md"})
	if !goerrors.IsCategory(err, goerrors.CategoryConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if data, _ := os.ReadFile(target); string(data) != "keep me" {
		t.Fatalf("existing document was modified")
	}

	if err := handler.Execute(context.Background(), NewDocumentCommand{Path: "posts/hello.md", Force: true}); err != nil {
		t.Fatalf("forced execute: %v", err)
	}
	if data, _ := os.ReadFile(target); string(data) == "keep me" {
		t.Fatalf("expected forced scaffold to replace the document")
	}
}

func TestNewDocumentHandlerValidation(t *testing.T) {
	handler := NewNewDocumentHandler(t.TempDir(), clock, nil)
	cases := map[string]struct {
		msg      NewDocumentCommand
		category goerrors.Category
	}{
		"missing path":  {msg: NewDocumentCommand{}, category: goerrors.CategoryValidation},
		"not markdown":  {msg: NewDocumentCommand{Path: "posts/hello.txt"}, category: goerrors.CategoryValidation},
		"bad format":    {msg: NewDocumentCommand{Path: "posts/hello.md", Format: "xml"}, category: goerrors.CategoryValidation},
		"empty tag":     {msg: NewDocumentCommand{Path: "posts/hello.md", Tags: []string{""}}, category: goerrors.CategoryValidation},
		"escaping path": {msg: NewDocumentCommand{Path: "../outside.md"}, category: goerrors.CategoryBadInput},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := handler.Execute(context.Background(), tc.msg)
			if !goerrors.IsCategory(err, tc.category) {
				t.Fatalf("expected %s error, got %v", tc.category, err)
			}
		})
	}
}

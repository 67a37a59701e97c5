package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestFromUpload_PlainText(t *testing.T) {
	text, err := FromUpload("notes.txt", []byte("hello world"))
	if err != nil {
		t.Fatalf("FromUpload failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestFromUpload_MarkdownCaseInsensitive(t *testing.T) {
	text, err := FromUpload("README.MD", []byte("# title"))
	if err != nil {
		t.Fatalf("FromUpload failed: %v", err)
	}
	if text != "# title" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestFromUpload_ReplacesInvalidUTF8(t *testing.T) {
	text, err := FromUpload("notes.txt", []byte{'o', 'k', 0xff, 0xfe})
	if err != nil {
		t.Fatalf("FromUpload failed: %v", err)
	}
	if !strings.HasPrefix(text, "ok") || strings.Contains(text, "\xff") {
		t.Errorf("invalid bytes should be replaced, got %q", text)
	}
}

func TestFromUpload_UnsupportedType(t *testing.T) {
	_, err := FromUpload("image.png", []byte{1, 2, 3})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestFromUpload_BrokenPDF(t *testing.T) {
	if _, err := FromUpload("doc.pdf", []byte("not a pdf at all")); err == nil {
		t.Fatal("expected an error for a broken pdf")
	}
}

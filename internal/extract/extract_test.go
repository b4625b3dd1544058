package extract

import (
	"strings"
	"testing"
)

func TestFlattenDocumentXML(t *testing.T) {
	content := `<w:body><w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second &amp; third</w:t></w:r></w:p>` +
		`<w:p></w:p></w:body>`

	got := flattenDocumentXML(content)
	want := "First paragraph\nSecond & third"
	if got != want {
		t.Errorf("flattenDocumentXML = %q, want %q", got, want)
	}
}

func TestFlattenDocumentXMLSplitRuns(t *testing.T) {
	content := `<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>world</w:t></w:r></w:p>`
	got := flattenDocumentXML(content)
	if got != "Hello world" {
		t.Errorf("expected runs joined within a paragraph, got %q", got)
	}
}

func TestByFormatUnsupported(t *testing.T) {
	if _, err := ByFormat("txt", []byte("plain")); err == nil {
		t.Fatal("expected error for unsupported format")
	} else if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("unexpected error %v", err)
	}
}

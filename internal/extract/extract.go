package extract

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var xmlTagRe = regexp.MustCompile(`<[^>]+>`)

// PDFText extracts plain text from a PDF document. Pages that cannot be
// decoded are skipped.
func PDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, _ := page.GetPlainText(nil)
		b.WriteString(text)
	}

	return b.String(), nil
}

// DOCXText extracts paragraph text from a DOCX document.
func DOCXText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: read docx: %w", err)
	}
	defer doc.Close()

	return flattenDocumentXML(doc.Editable().GetContent()), nil
}

// ByFormat dispatches on the stored file format.
func ByFormat(format string, data []byte) (string, error) {
	switch strings.ToLower(format) {
	case "pdf":
		return PDFText(data)
	case "docx":
		return DOCXText(data)
	default:
		return "", fmt.Errorf("extract: unsupported format %q", format)
	}
}

// flattenDocumentXML turns word/document.xml content into newline-joined
// paragraph text.
func flattenDocumentXML(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = xmlTagRe.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return strings.Join(out, "\n")
}

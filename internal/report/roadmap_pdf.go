package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/orbitlearn/orbit-server/internal/models"
)

// RenderRoadmapPDF renders a saved roadmap as a printable document:
// header, description, duration, the numbered learning path with
// resources, then the dependency list.
func RenderRoadmapPDF(roadmap models.Roadmap) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Roadmap: %s", roadmap.Title), true)
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()

	// Core fonts are cp1252; translate whatever the model produced.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 8, tr(fmt.Sprintf("Roadmap: %s", roadmap.Title)), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, tr(roadmap.Description), "", "L", false)
	pdf.Ln(4)

	if roadmap.DurationWeeks > 0 {
		pdf.MultiCell(0, 6, fmt.Sprintf("Target Duration: %d weeks", roadmap.DurationWeeks), "", "L", false)
		pdf.Ln(1)
	}
	if !roadmap.CreatedAt.IsZero() {
		pdf.MultiCell(0, 6, fmt.Sprintf("Created: %s", roadmap.CreatedAt.Format("2006-01-02")), "", "L", false)
	}
	pdf.Ln(4)

	sectionHeading(pdf, "Learning Path:")

	for i, node := range roadmap.Data.Nodes {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 7, tr(fmt.Sprintf("%d. %s", i+1, node.Title)), "", "L", false)

		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(node.Description), "", "L", false)
		if node.Week > 0 {
			pdf.MultiCell(0, 6, fmt.Sprintf("Recommended weeks: %d", node.Week), "", "L", false)
		}
		if len(node.Resources) > 0 {
			pdf.MultiCell(0, 6, "Resources:", "", "L", false)
			for _, resource := range node.Resources {
				pdf.MultiCell(0, 6, tr("  - "+resource), "", "L", false)
			}
		}
		pdf.Ln(4)
	}

	if len(roadmap.Data.Edges) > 0 {
		sectionHeading(pdf, "Skill Dependencies:")

		titles := make(map[string]string, len(roadmap.Data.Nodes))
		for _, node := range roadmap.Data.Nodes {
			titles[node.ID] = node.Title
		}

		pdf.SetFont("Helvetica", "", 11)
		for _, edge := range roadmap.Data.Edges {
			from, okFrom := titles[edge.From]
			to, okTo := titles[edge.To]
			if !okFrom || !okTo {
				continue
			}
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s -> %s", from, to)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render roadmap pdf: %w", err)
	}

	return buf.Bytes(), nil
}

func sectionHeading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.MultiCell(0, 7, text, "", "L", false)
	pdf.Ln(1)
}

package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/ldi/todo/pkg/models"
)

// WritePDF renders a simple A4 report, one block per task.
func WritePDF(w io.Writer, tasks []*models.Task) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("To-Do List", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "To-Do List")
	pdf.Ln(12)

	if len(tasks) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(40, 6, "No tasks")
		return pdf.Output(w)
	}

	for _, t := range tasks {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		header := fmt.Sprintf("%s %s  (%s", box, t.Title, t.Priority)
		if t.DueDate != nil {
			header += ", due " + t.DueDate.String()
		}
		header += ")"

		pdf.SetFont("Arial", "B", 11)
		pdf.MultiCell(0, 6, tr(header), "0", "L", false)
		if t.Description != "" {
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 5, tr(t.Description), "0", "L", false)
		}
		pdf.Ln(2)
	}

	return pdf.Output(w)
}

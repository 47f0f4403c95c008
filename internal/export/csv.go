package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/ldi/todo/pkg/models"
)

// CSVHeader is the first line of every CSV export.
const CSVHeader = "Title,Description,DueDate,Priority,Completed"

// WriteCSV writes the header and one row per task. Title and Description are
// always quoted, with embedded quotes doubled; the other columns are bare.
func WriteCSV(w io.Writer, tasks []*models.Task) error {
	if _, err := io.WriteString(w, CSVHeader+"\n"); err != nil {
		return err
	}
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.String()
		}
		_, err := fmt.Fprintf(w, "%s,%s,%s,%s,%t\n",
			quoteCSV(t.Title), quoteCSV(t.Description), due, t.Priority, t.Completed)
		if err != nil {
			return err
		}
	}
	return nil
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

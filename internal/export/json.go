package export

import (
	"encoding/json"
	"io"

	"github.com/ldi/todo/pkg/models"
)

func WriteJSON(w io.Writer, tasks []*models.Task) error {
	if tasks == nil {
		tasks = []*models.Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(tasks)
}

// Package snapshot encodes a task list as JSON lines: one meta record
// followed by one record per task in insertion order.
package snapshot

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ldi/todo/pkg/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	FormatName = "todo-snapshot"
	Version    = 1

	maxLineSize = 16 * 1024 * 1024
)

var (
	//go:embed task.schema.json
	taskSchemaJSON string
	//go:embed meta.schema.json
	metaSchemaJSON string

	taskSchema = mustCompile("task.schema.json", taskSchemaJSON)
	metaSchema = mustCompile("meta.schema.json", metaSchemaJSON)

	now = time.Now
)

func mustCompile(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("snapshot: adding schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("snapshot: compiling schema %s: %v", name, err))
	}
	return schema
}

type metaRecord struct {
	RecordType string `json:"record_type"`
	Format     string `json:"format"`
	Version    int    `json:"version"`
	Count      int    `json:"count"`
	SavedAt    string `json:"saved_at,omitempty"`
}

type taskRecord struct {
	RecordType string `json:"record_type"`
	models.Task
}

// Encode writes the meta record and one line per task.
func Encode(w io.Writer, tasks []*models.Task) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	meta := metaRecord{
		RecordType: "meta",
		Format:     FormatName,
		Version:    Version,
		Count:      len(tasks),
		SavedAt:    now().UTC().Format(time.RFC3339),
	}
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("failed to write meta record: %w", err)
	}

	for _, t := range tasks {
		if err := enc.Encode(taskRecord{RecordType: "task", Task: *t}); err != nil {
			return fmt.Errorf("failed to write task %s: %w", t.ID, err)
		}
	}
	return nil
}

// Decode reads a snapshot written by Encode. Anything that is not a meta
// record followed by exactly Count well-formed task records yields an
// InvalidDataError; a failing reader yields an IOError. Blank lines are
// ignored.
func Decode(r io.Reader) ([]*models.Task, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		meta    *metaRecord
		tasks   []*models.Task
		seenIDs = make(map[string]int)
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var raw any
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, invalid(lineNo, "malformed JSON: %v", err)
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, invalid(lineNo, "record is not an object")
		}
		recordType, _ := obj["record_type"].(string)

		switch recordType {
		case "meta":
			if meta != nil {
				return nil, invalid(lineNo, "duplicate meta record")
			}
			if err := metaSchema.Validate(raw); err != nil {
				return nil, invalid(lineNo, "bad meta record: %s", schemaMessage(err))
			}
			meta = &metaRecord{}
			if err := json.Unmarshal(line, meta); err != nil {
				return nil, invalid(lineNo, "bad meta record: %v", err)
			}
			if meta.Version > Version {
				return nil, invalid(lineNo, "unsupported snapshot version %d", meta.Version)
			}

		case "task":
			if meta == nil {
				return nil, invalid(lineNo, "task record before meta record")
			}
			if err := taskSchema.Validate(raw); err != nil {
				return nil, invalid(lineNo, "bad task record: %s", schemaMessage(err))
			}
			var rec taskRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, invalid(lineNo, "bad task record: %v", err)
			}
			t := rec.Task
			if err := t.Validate(); err != nil {
				return nil, invalid(lineNo, "bad task record: %v", err)
			}
			if prev, dup := seenIDs[t.ID]; dup {
				return nil, invalid(lineNo, "duplicate task id %s (first seen on line %d)", t.ID, prev)
			}
			seenIDs[t.ID] = lineNo
			tasks = append(tasks, &t)

		default:
			return nil, invalid(lineNo, "unknown record type %q", recordType)
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, invalid(lineNo+1, "line longer than %d bytes", maxLineSize)
		}
		return nil, &models.IOError{Op: "load", Err: err}
	}
	if meta == nil {
		return nil, invalid(0, "missing meta record")
	}
	if meta.Count != len(tasks) {
		return nil, invalid(0, "meta record announces %d tasks, found %d", meta.Count, len(tasks))
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return tasks, nil
}

// Save writes the snapshot to path atomically using a temporary file in the
// same directory.
func Save(path string, tasks []*models.Task) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &models.IOError{Op: "save", Path: path, Err: err}
	}

	tempFile, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return &models.IOError{Op: "save", Path: path, Err: err}
	}
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
		}
	}()

	w := bufio.NewWriter(tempFile)
	if err := Encode(w, tasks); err != nil {
		return &models.IOError{Op: "save", Path: path, Err: err}
	}
	if err := w.Flush(); err != nil {
		return &models.IOError{Op: "save", Path: path, Err: err}
	}
	if err := tempFile.Sync(); err != nil {
		return &models.IOError{Op: "save", Path: path, Err: err}
	}
	if err := tempFile.Close(); err != nil {
		return &models.IOError{Op: "save", Path: path, Err: err}
	}

	filename := tempFile.Name()
	tempFile = nil

	if err := os.Rename(filename, path); err != nil {
		os.Remove(filename)
		return &models.IOError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Load reads and fully validates the snapshot at path.
func Load(path string) ([]*models.Task, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &models.IOError{Op: "load", Path: path, Err: err}
	}
	defer file.Close()

	tasks, err := Decode(file)
	if err != nil {
		switch e := err.(type) {
		case *models.InvalidDataError:
			e.Path = path
		case *models.IOError:
			e.Path = path
		}
		return nil, err
	}
	return tasks, nil
}

func invalid(line int, format string, args ...any) error {
	return &models.InvalidDataError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// schemaMessage flattens a jsonschema validation error into its leaf causes.
func schemaMessage(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var msgs []string
	collectSchemaErrors(ve, &msgs)
	return strings.Join(msgs, "; ")
}

func collectSchemaErrors(err *jsonschema.ValidationError, msgs *[]string) {
	if len(err.Causes) == 0 {
		loc := err.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, msgs)
	}
}

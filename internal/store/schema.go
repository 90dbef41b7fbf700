package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nullus/nullus/internal/task"
)

// taskSchema constrains the persisted task collection. Validation runs
// over the JSON form of the loaded rows, so it catches structural
// problems (ids below 1, empty descriptions, stray status tokens) that
// the row codec alone does not reject.
const taskSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["tasks"],
  "properties": {
    "tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "status", "desc", "created", "is_visible", "is_pin"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "status": {"enum": ["TODO", "DONE"]},
          "desc": {"type": "string", "minLength": 1},
          "scheduled": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
          "deadline": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
          "created": {"type": "string"},
          "is_visible": {"type": "boolean"},
          "is_pin": {"type": "boolean"},
          "done_date": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("tasks.schema.json", strings.NewReader(taskSchema)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile("tasks.schema.json")
	})
	return schema, schemaErr
}

// Validate checks the collection against the embedded JSON Schema and
// returns one error per violation, each prefixed with the offending
// location.
func Validate(tasks task.List) []error {
	s, err := compiledSchema()
	if err != nil {
		return []error{fmt.Errorf("compile schema: %w", err)}
	}

	doc := struct {
		Tasks task.List `json:"tasks"`
	}{Tasks: tasks}
	if doc.Tasks == nil {
		doc.Tasks = task.List{}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return []error{fmt.Errorf("marshal tasks: %w", err)}
	}
	var obj any
	if err := json.Unmarshal(data, &obj); err != nil {
		return []error{fmt.Errorf("unmarshal tasks: %w", err)}
	}

	if err := s.Validate(obj); err != nil {
		var errs []error
		collectSchemaErrors(&errs, err)
		return errs
	}
	return nil
}

func collectSchemaErrors(errs *[]error, err error) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		*errs = append(*errs, err)
		return
	}
	if len(ve.Causes) == 0 {
		*errs = append(*errs, fmt.Errorf("%s: %s", jsonPointerToPath(ve.InstanceLocation), ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(errs, cause)
	}
}

// jsonPointerToPath turns a JSON pointer like /tasks/0/id into a
// readable path like tasks[0].id.
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")
	if ptr == "" {
		return "(root)"
	}
	path := ""
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path == "" {
			path = part
		} else {
			path += "." + part
		}
	}
	return path
}

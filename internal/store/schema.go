package store

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	tasksSchema = mustCompileSchema("tasks.schema.json")
	usersSchema = mustCompileSchema("users.schema.json")
)

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}

	url := "mem://schemas/" + name
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return schema
}

// decodeCollection validates raw against schema and decodes it into a slice.
// The result is never nil.
func decodeCollection[T any](key string, raw []byte, schema *jsonschema.Schema) ([]T, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &DeserializationError{Key: key, Err: err}
	}

	if err := schema.Validate(doc); err != nil {
		path, msg := firstSchemaCause(err)
		return nil, &DeserializationError{Key: key, Path: path, Err: errors.New(msg)}
	}

	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &DeserializationError{Key: key, Err: err}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// firstSchemaCause walks to the first leaf validation error
func firstSchemaCause(err error) (path, message string) {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return "", err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return pointerToPath(ve.InstanceLocation), ve.Message
}

// pointerToPath turns a JSON pointer like /0/completed into 0.completed
func pointerToPath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return "$"
	}
	return strings.ReplaceAll(pointer, "/", ".")
}

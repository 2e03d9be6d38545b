// Package contracts хранит JSON-схемы входящих запросов и событий и проверяет по ним сообщения.
// Путь "events/retrain-model/v1.json" регистрируется под ключом "RetrainModelEvent/1.0.0",
// "requests/estimate-price/v1.json" - под ключом "EstimatePriceRequest/1.0.0".
package contracts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed schemas
var schemasFS embed.FS

const resourcePrefix = "https://schemas.price-estimation.local/"

// Версия и тип событий, которые слушает и публикует сервис
const (
	RetrainModelEvent        = "RetrainModelEvent"
	ModelTrainingResultEvent = "ModelTrainingResultEvent"
	EstimatePriceRequest     = "EstimatePriceRequest"
	Version1                 = "1.0.0"
)

var kindSuffixes = map[string]string{
	"events":   "Event",
	"requests": "Request",
}

var loadSchemas = sync.OnceValues(func() (map[string]*jsonschema.Schema, error) {
	return compileAll(schemasFS)
})

func compileAll(fsys fs.FS) (map[string]*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	var paths []string
	err := fs.WalkDir(fsys, "schemas", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(path, "schemas/")
		if err := compiler.AddResource(resourcePrefix+rel, strings.NewReader(string(data))); err != nil {
			return fmt.Errorf("add schema resource %s: %w", rel, err)
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("contracts: walk schemas: %w", err)
	}

	compiled := make(map[string]*jsonschema.Schema, len(paths))
	for _, rel := range paths {
		key, err := keyFromPath(rel)
		if err != nil {
			return nil, err
		}
		schema, err := compiler.Compile(resourcePrefix + rel)
		if err != nil {
			return nil, fmt.Errorf("contracts: compile %s: %w", rel, err)
		}
		compiled[key] = schema
	}
	return compiled, nil
}

// keyFromPath: "events/retrain-model/v1.json" -> "RetrainModelEvent/1.0.0"
func keyFromPath(path string) (string, error) {
	parts := strings.Split(strings.TrimSuffix(path, ".json"), "/")
	if len(parts) != 3 {
		return "", fmt.Errorf("contracts: unexpected schema path %q", path)
	}
	suffix, ok := kindSuffixes[parts[0]]
	if !ok {
		return "", fmt.Errorf("contracts: unknown schema kind %q", parts[0])
	}
	if !strings.HasPrefix(parts[2], "v") {
		return "", fmt.Errorf("contracts: schema version must look like v1, got %q", parts[2])
	}

	caser := cases.Title(language.English)
	var name strings.Builder
	for _, p := range strings.Split(parts[1], "-") {
		name.WriteString(caser.String(p))
	}
	name.WriteString(suffix)

	return fmt.Sprintf("%s/%s.0.0", name.String(), strings.TrimPrefix(parts[2], "v")), nil
}

// Validate проверяет JSON-тело по схеме name/version
func Validate(name, version string, body []byte) error {
	schemas, err := loadSchemas()
	if err != nil {
		return err
	}

	key := name + "/" + version
	schema, ok := schemas[key]
	if !ok {
		return fmt.Errorf("schema for '%s' version '%s' not found", name, version)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("message body is not a valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}

// Known возвращает ключи всех зарегистрированных схем
func Known() ([]string, error) {
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(schemas))
	for k := range schemas {
		keys = append(keys, k)
	}
	return keys, nil
}

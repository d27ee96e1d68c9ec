package sources

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of an operator-supplied source table.
type File struct {
	Sources map[string]Source `json:"sources" yaml:"sources" toml:"sources" validate:"required,dive,keys,required,endkeys"`
}

var (
	validate   = validator.New()
	strictJSON = jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		DisallowUnknownFields:  true,
	}.Froze()
)

// LoadFile reads a source table from a YAML, TOML or JSON file. The format is
// chosen by extension; unknown extensions are parsed as YAML.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read sources file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a source table. ext selects the decoder (".toml", ".json",
// anything else is YAML).
func Parse(data []byte, ext string) (Table, error) {
	var file File
	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return Table{}, fmt.Errorf("parse sources toml: %w", err)
		}
	case ".json":
		if err := strictJSON.Unmarshal(data, &file); err != nil {
			return Table{}, fmt.Errorf("parse sources json: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return Table{}, fmt.Errorf("parse sources yaml: %w", err)
		}
	}

	if err := validate.Struct(file); err != nil {
		return Table{}, fmt.Errorf("invalid sources file: %w", err)
	}
	if err := validateEntries(file.Sources); err != nil {
		return Table{}, err
	}
	return NewTable(file.Sources), nil
}

// validateEntries checks each source and its secondary download. Map values
// are not reached by the dive tag on File.
func validateEntries(entries map[string]Source) error {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		src := entries[id]
		if err := validate.Struct(src); err != nil {
			return fmt.Errorf("invalid source %q: %w", id, err)
		}
		if src.Secondary != nil {
			if err := validate.Struct(*src.Secondary); err != nil {
				return fmt.Errorf("invalid secondary download for %q: %w", id, err)
			}
		}
	}
	return nil
}

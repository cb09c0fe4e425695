package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// json decodes whole documents only: Unmarshal rejects bytes left after the
// first value. Numbers decode as json.Number to keep their literal text.
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

var (
	errJSONNotArray    = errors.New("JSON file should contain an array of water quality data")
	errYAMLNotSequence = errors.New("YAML file should contain a sequence of water quality data")
	errYAMLMultiDoc    = errors.New("YAML file should contain a single document")
)

// parseJSON decodes a top-level array of objects. Numbers keep their literal
// text so that exported values survive a round trip unchanged.
func parseJSON(content []byte) (Dataset, error) {
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return Dataset{}, &FormatError{Format: FormatJSON, Err: err}
	}

	items, ok := doc.([]any)
	if !ok {
		return Dataset{}, &FormatError{Format: FormatJSON, Err: errJSONNotArray}
	}

	ds := Dataset{Format: FormatJSON}
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return Dataset{}, &FormatError{Format: FormatJSON, Err: fmt.Errorf("element %d is not an object", i+1)}
		}
		rec := domain.RawRecord{Line: i + 1, Values: make(map[string]string, len(obj))}
		for _, k := range orderedKeys(obj) {
			key := NormalizeKey(k)
			rec.Keys = append(rec.Keys, key)
			rec.Values[key] = scalarString(obj[k])
		}
		ds.Records = append(ds.Records, rec)
	}
	ds.Columns = columnsOf(ds.Records)
	return ds, nil
}

// ParseObject decodes a single JSON object into a raw record. It is used for
// streamed samples, which arrive one reading set per message.
func ParseObject(content []byte) (domain.RawRecord, error) {
	var obj map[string]any
	if err := json.Unmarshal(content, &obj); err != nil {
		return domain.RawRecord{}, &FormatError{Format: FormatJSON, Err: err}
	}
	if obj == nil {
		return domain.RawRecord{}, &FormatError{Format: FormatJSON, Err: errors.New("sample must be a JSON object")}
	}

	rec := domain.RawRecord{Line: 1, Values: make(map[string]string, len(obj))}
	for _, k := range orderedKeys(obj) {
		key := NormalizeKey(k)
		rec.Keys = append(rec.Keys, key)
		rec.Values[key] = scalarString(obj[k])
	}
	return rec, nil
}

// parseYAML decodes a single document holding a top-level sequence of
// mappings, preserving key order. A second document is rejected.
func parseYAML(content []byte) (Dataset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))

	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return Dataset{}, &FormatError{Format: FormatYAML, Err: errYAMLNotSequence}
		}
		return Dataset{}, &FormatError{Format: FormatYAML, Err: err}
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errYAMLMultiDoc
		}
		return Dataset{}, &FormatError{Format: FormatYAML, Err: err}
	}

	seq := &root
	if seq.Kind == yaml.DocumentNode && len(seq.Content) == 1 {
		seq = seq.Content[0]
	}
	if seq.Kind != yaml.SequenceNode {
		return Dataset{}, &FormatError{Format: FormatYAML, Err: errYAMLNotSequence}
	}

	ds := Dataset{Format: FormatYAML}
	for i, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			return Dataset{}, &FormatError{Format: FormatYAML, Err: fmt.Errorf("element %d is not a mapping", i+1)}
		}
		rec := domain.RawRecord{Line: item.Line, Values: make(map[string]string, len(item.Content)/2)}
		for j := 0; j+1 < len(item.Content); j += 2 {
			key := NormalizeKey(item.Content[j].Value)
			rec.Keys = append(rec.Keys, key)
			rec.Values[key] = yamlScalar(item.Content[j+1])
		}
		ds.Records = append(ds.Records, rec)
	}
	ds.Columns = columnsOf(ds.Records)
	return ds, nil
}

// orderedKeys lists schema fields first in schema order, then any other keys
// alphabetically. JSON objects carry no usable key order once decoded.
func orderedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := schemaRank(NormalizeKey(keys[i])), schemaRank(NormalizeKey(keys[j]))
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func schemaRank(key string) int {
	for i, f := range domain.Schema() {
		if string(f) == key {
			return i
		}
	}
	return len(domain.Schema())
}

// columnsOf returns the first record's keys, the preview column set.
func columnsOf(records []domain.RawRecord) []string {
	if len(records) == 0 {
		return nil
	}
	return records[0].Keys
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func yamlScalar(n *yaml.Node) string {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return ""
	}
	return n.Value
}

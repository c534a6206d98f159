// Package dictionary loads and represents DataDictionary schema catalogs:
// the named collection of StreamDefinitions a script's Load statement
// binds. Parsing/serializing the dictionary is, per the data model, an
// external collaborator's concern in the real system; this package plays
// that role for the compiler with a YAML source format and a
// compress-and-fingerprint wire form suitable for embedding in emitted
// program source.
package dictionary

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/cases"
	"sigs.k8s.io/yaml"

	"github.com/pthm/pansqlc/internal/types"
)

var fold = cases.Fold()

func foldEq(a, b string) bool { return fold.String(a) == fold.String(b) }

// FieldDefinition is one field of a StreamDefinition.
type FieldDefinition struct {
	Name       string `json:"name"`
	Tag        string `json:"type"`
	Nullable   bool   `json:"nullable"`
	Collection bool   `json:"collection"`
	TypeInfo   string `json:"typeInfo,omitempty"`
}

// FieldType converts the wire-form string tag into the types package's
// enumeration. Unknown tags resolve to TagUnicodeString, the widest
// scalar, so a malformed dictionary fails at assignability-check time
// with a readable diagnostic rather than here.
func (f FieldDefinition) FieldType() types.FieldType {
	tag, ok := tagsByName[f.Tag]
	if !ok {
		tag = types.TagUnicodeString
	}
	return types.FieldType{Tag: tag, Nullable: f.Nullable, Collection: f.Collection, TypeInfo: f.TypeInfo}
}

var tagsByName = map[string]types.TypeTag{
	"Int16":          types.TagInt16,
	"Int32":          types.TagInt32,
	"Int64":          types.TagInt64,
	"Float32":        types.TagFloat32,
	"Float64":        types.TagFloat64,
	"Decimal":        types.TagDecimal,
	"Boolean":        types.TagBoolean,
	"Date":           types.TagDate,
	"DateTime":       types.TagDateTime,
	"DateTimeOffset": types.TagDateTimeOffset,
	"Time":           types.TagTime,
	"AnsiString":     types.TagAnsiString,
	"UnicodeString":  types.TagUnicodeString,
	"Binary":         types.TagBinary,
	"VarBinary":      types.TagVarBinary,
	"JSON":           types.TagJSON,
	"XML":            types.TagXML,
	"GUID":           types.TagGUID,
}

// StreamDefinition is a named, ordered field list plus its primary-key
// field names, keyed by (schema, name) within a DataDictionary.
type StreamDefinition struct {
	Schema     string            `json:"schema,omitempty"`
	Name       string            `json:"name"`
	Fields     []FieldDefinition `json:"fields"`
	PrimaryKey []string          `json:"primaryKey,omitempty"`
}

// Field looks up a field by its exact declared name. Used when comparing
// two dictionaries' field names against each other (the linker's
// auto-mapper), where neither side is a script-bound identifier.
func (s StreamDefinition) Field(name string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// FieldFold looks up a field case-insensitively, for resolving a script's
// column reference (itself a folded, bound-identifier-like token) against
// the dictionary's canonical field name.
func (s StreamDefinition) FieldFold(name string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if foldEq(f.Name, name) {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// UniqueKeyField returns the single primary-key field, which is the only
// shape the join check (internal/sema) accepts for a probe column. Tables
// with a composite or absent primary key report ok=false.
func (s StreamDefinition) UniqueKeyField() (FieldDefinition, bool) {
	if len(s.PrimaryKey) != 1 {
		return FieldDefinition{}, false
	}
	return s.Field(s.PrimaryKey[0])
}

// DataDictionary is a named catalog of StreamDefinitions, as loaded from a
// .pandict.yaml file referenced by a Load statement.
type DataDictionary struct {
	Name    string             `json:"name"`
	Streams []StreamDefinition `json:"streams"`
}

// Stream looks up a stream definition by its exact declared name.
func (d DataDictionary) Stream(name string) (StreamDefinition, bool) {
	for _, s := range d.Streams {
		if s.Name == name {
			return s, true
		}
	}
	return StreamDefinition{}, false
}

// StreamFold looks up a stream case-insensitively, for resolving a
// script's dict.stream reference.
func (d DataDictionary) StreamFold(name string) (StreamDefinition, bool) {
	for _, s := range d.Streams {
		if foldEq(s.Name, name) {
			return s, true
		}
	}
	return StreamDefinition{}, false
}

// ErrNotFound and ErrMalformed are the sentinel causes Load wraps; callers
// needing to branch on them use errors.Is.
var (
	ErrNotFound  = fmt.Errorf("dictionary file not found")
	ErrMalformed = fmt.Errorf("dictionary file is malformed")
)

// Load reads and parses a dictionary file from disk. path is resolved by
// the caller (the script's directory, per §6).
func Load(path string) (*DataDictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var dict DataDictionary
	if err := yaml.Unmarshal(raw, &dict); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMalformed, err)
	}
	return &dict, nil
}

// Compress renders the dictionary back to YAML and gzip+base64 encodes it,
// the form the emitter embeds as a literal string in generated program
// source for runtime decompression (§4.7, §6).
func Compress(d *DataDictionary) (string, error) {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(raw); err != nil {
		return "", err
	}
	if err := gw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decompress reverses Compress; exported mainly so tests can round-trip
// what the emitter produces.
func Decompress(encoded string) (*DataDictionary, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	yamlBytes, err := io.ReadAll(gr)
	if err != nil {
		return nil, err
	}
	var dict DataDictionary
	if err := yaml.Unmarshal(yamlBytes, &dict); err != nil {
		return nil, err
	}
	return &dict, nil
}

// Fingerprint returns a content hash of the dictionary's canonical YAML
// form, which the emitter writes as a comment above each embedded
// dictionary blob. The network pass does not use it: handoff temp files
// are named with a random UUID.
func Fingerprint(d *DataDictionary) (uint64, error) {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return 0, err
	}
	return xxh3.Hash(raw), nil
}

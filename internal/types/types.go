// Package types implements the field type system shared by every later
// pass: the fixed TypeTag enumeration, the FieldType triple that dresses a
// tag with nullability/collection/vendor-specific info, and the
// assignability matrix that the projection check (internal/sema) and the
// transformation builder (internal/transform) both consult.
package types

// TypeTag enumerates the field kinds a DataDictionary can declare. The set
// is closed and mirrors the target runtime's primitive accessors
// (GetInt32, GetString, ...); adding a tag means adding both a matrix row
// and an emitter accessor.
type TypeTag int

const (
	TagInt16 TypeTag = iota
	TagInt32
	TagInt64
	TagFloat32
	TagFloat64
	TagDecimal
	TagBoolean
	TagDate
	TagDateTime
	TagDateTimeOffset
	TagTime
	TagAnsiString
	TagUnicodeString
	TagBinary
	TagVarBinary
	TagJSON
	TagXML
	TagGUID
)

var tagNames = map[TypeTag]string{
	TagInt16:          "Int16",
	TagInt32:          "Int32",
	TagInt64:          "Int64",
	TagFloat32:        "Float32",
	TagFloat64:        "Float64",
	TagDecimal:        "Decimal",
	TagBoolean:        "Boolean",
	TagDate:           "Date",
	TagDateTime:       "DateTime",
	TagDateTimeOffset: "DateTimeOffset",
	TagTime:           "Time",
	TagAnsiString:     "AnsiString",
	TagUnicodeString:  "UnicodeString",
	TagBinary:         "Binary",
	TagVarBinary:      "VarBinary",
	TagJSON:           "JSON",
	TagXML:            "XML",
	TagGUID:           "GUID",
}

func (t TypeTag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return "Unknown"
}

// FieldType is the (TypeTag, nullable, collection, typeInfo) triple from
// the data model. TypeInfo carries vendor-specific detail (e.g. decimal
// precision/scale, string length) that the matrix ignores but the emitter
// may render into a comment or accessor argument.
type FieldType struct {
	Tag        TypeTag
	Nullable   bool
	Collection bool
	TypeInfo   string

	// Wildcard marks the untyped NULL literal (§4.4: "NULL literal becomes
	// the null sentinel"): it carries no real tag and is assignable to any
	// nullable destination field, bypassing the widening matrix below.
	Wildcard bool
}

// widensTo records, per tag, the set of tags a value of that tag may widen
// into without loss. It is deliberately one-directional: Int16 widens to
// Int32 but not the reverse. Every tag widens to itself (handled in
// Assignable, not repeated here).
var widensTo = map[TypeTag][]TypeTag{
	TagInt16:      {TagInt32, TagInt64, TagFloat64, TagDecimal},
	TagInt32:      {TagInt64, TagFloat64, TagDecimal},
	TagInt64:      {TagDecimal},
	TagFloat32:    {TagFloat64},
	TagDate:       {TagDateTime, TagDateTimeOffset},
	TagDateTime:   {TagDateTimeOffset},
	TagAnsiString: {TagUnicodeString},
	TagBinary:     {TagVarBinary},
}

func tagCompatible(src, dst TypeTag) bool {
	if src == dst {
		return true
	}
	for _, t := range widensTo[src] {
		if t == dst {
			return true
		}
	}
	return false
}

// Assignable reports whether a value of type src may populate a
// destination field of type dst: their tags must be compatible by the
// widening matrix above, the collection-ness must match, and either src
// is non-nullable or dst accepts nulls. A Wildcard src (the NULL literal)
// skips the tag and collection checks entirely and is assignable to any
// nullable destination field.
func Assignable(src, dst FieldType) bool {
	if src.Wildcard {
		return dst.Nullable
	}
	if src.Collection != dst.Collection {
		return false
	}
	if !tagCompatible(src.Tag, dst.Tag) {
		return false
	}
	if src.Nullable && !dst.Nullable {
		return false
	}
	return true
}

package types

import "testing"

func TestAssignableWidening(t *testing.T) {
	cases := []struct {
		name string
		src  FieldType
		dst  FieldType
		want bool
	}{
		{"int16 to int32", FieldType{Tag: TagInt16}, FieldType{Tag: TagInt32}, true},
		{"int32 to int16 rejected", FieldType{Tag: TagInt32}, FieldType{Tag: TagInt16}, false},
		{"int32 to decimal", FieldType{Tag: TagInt32}, FieldType{Tag: TagDecimal}, true},
		{"ansi to unicode", FieldType{Tag: TagAnsiString}, FieldType{Tag: TagUnicodeString}, true},
		{"unicode to ansi rejected", FieldType{Tag: TagUnicodeString}, FieldType{Tag: TagAnsiString}, false},
		{"guid to guid", FieldType{Tag: TagGUID}, FieldType{Tag: TagGUID}, true},
		{"guid to string rejected", FieldType{Tag: TagGUID}, FieldType{Tag: TagUnicodeString}, false},
		{"date to datetime", FieldType{Tag: TagDate}, FieldType{Tag: TagDateTime}, true},
		{"date to datetimeoffset transitively", FieldType{Tag: TagDate}, FieldType{Tag: TagDateTimeOffset}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Assignable(c.src, c.dst); got != c.want {
				t.Errorf("Assignable(%v, %v) = %v, want %v", c.src, c.dst, got, c.want)
			}
		})
	}
}

func TestAssignableNullability(t *testing.T) {
	nullableSrc := FieldType{Tag: TagInt32, Nullable: true}
	nonNullableDst := FieldType{Tag: TagInt32}
	if Assignable(nullableSrc, nonNullableDst) {
		t.Error("nullable source should not be assignable to non-nullable destination")
	}

	nullableDst := FieldType{Tag: TagInt32, Nullable: true}
	if !Assignable(nullableSrc, nullableDst) {
		t.Error("nullable source should be assignable to nullable destination")
	}

	nonNullableSrc := FieldType{Tag: TagInt32}
	if !Assignable(nonNullableSrc, nullableDst) {
		t.Error("non-nullable source should be assignable to nullable destination")
	}
}

func TestAssignableWildcardNull(t *testing.T) {
	null := FieldType{Nullable: true, Wildcard: true}
	if !Assignable(null, FieldType{Tag: TagInt32, Nullable: true}) {
		t.Error("NULL literal should be assignable to any nullable destination field, regardless of tag")
	}
	if !Assignable(null, FieldType{Tag: TagGUID, Collection: true, Nullable: true}) {
		t.Error("NULL literal should be assignable to a nullable collection field too")
	}
	if Assignable(null, FieldType{Tag: TagInt32}) {
		t.Error("NULL literal must not be assignable to a non-nullable destination field")
	}
}

func TestAssignableCollectionMismatch(t *testing.T) {
	scalar := FieldType{Tag: TagInt32}
	collection := FieldType{Tag: TagInt32, Collection: true}
	if Assignable(scalar, collection) || Assignable(collection, scalar) {
		t.Error("scalar and collection field types must not be cross-assignable")
	}
}

func TestTypeTagString(t *testing.T) {
	if TagDecimal.String() != "Decimal" {
		t.Errorf("TagDecimal.String() = %q, want Decimal", TagDecimal.String())
	}
}

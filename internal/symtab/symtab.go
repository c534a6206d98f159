// Package symtab implements the SymbolTable from the data model: the
// mapping from a script's bound identifiers to what they resolve to.
// Lookup is case-insensitive on the bound name (golang.org/x/text/cases
// folds it) but the underlying dictionary stream/field names stay
// case-sensitive — the Open Question resolved in SPEC_FULL.md §9.
package symtab

import (
	"fmt"

	"golang.org/x/text/cases"

	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/dictionary"
)

// Kind distinguishes what an identifier was bound to.
type Kind int

const (
	KindDict Kind = iota
	KindStreamVar
	KindTableVar
	KindReader
	KindWriter
)

func (k Kind) String() string {
	switch k {
	case KindDict:
		return "dictionary"
	case KindStreamVar:
		return "stream"
	case KindTableVar:
		return "table"
	case KindReader:
		return "reader"
	case KindWriter:
		return "writer"
	default:
		return "unknown"
	}
}

// Symbol is one entry in the table: its declared (case-preserved) name,
// its kind, and whatever that kind resolves to.
type Symbol struct {
	Name string
	Kind Kind

	// Set for KindDict.
	Dict *dictionary.DataDictionary

	// Set for KindStreamVar and KindTableVar: the dictionary the variable
	// was declared against (and the script's bound alias for it, which
	// internal/linker needs to match against other statements' dictionary
	// references) and the resolved stream definition within it.
	OriginDict     *dictionary.DataDictionary
	OriginDictName string
	Stream         dictionary.StreamDefinition

	// Set for KindReader and KindWriter.
	Connector string
	Direction ast.Direction

	// Consumed marks a KindStreamVar that has already been used as a
	// select FROM/JOIN source; the single-use check in internal/sema sets
	// this and fails on a second consumption.
	Consumed bool
}

var foldCase = cases.Fold()

func fold(name string) string { return foldCase.String(name) }

// Table is a SymbolTable: bound identifier -> Symbol, folded case on
// lookup, original case preserved for diagnostics.
type Table struct {
	symbols map[string]*Symbol
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{symbols: make(map[string]*Symbol)}
}

// Declare adds a new symbol. It reports an error if name (folded) is
// already bound, matching §4.3 pass 1's "redeclaration is fatal".
func (t *Table) Declare(sym *Symbol) error {
	key := fold(sym.Name)
	if existing, ok := t.symbols[key]; ok {
		return fmt.Errorf("%q is already declared as a %s", existing.Name, existing.Kind)
	}
	t.symbols[key] = sym
	return nil
}

// Lookup resolves name, folding case, and reports whether it was found.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.symbols[fold(name)]
	return sym, ok
}

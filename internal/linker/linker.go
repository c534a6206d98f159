// Package linker implements the link & auto-map pass (§4.5): it collects
// every stream-rename registration a script implies — explicit Map
// statements, the implicit renames a select's "from X into Y" carries,
// and same-named streams the script never mentions at all — into the
// ordered NameMap list the emitter needs, and assembles the rest of the
// whole-program IR (opens, transformers, the sync edge) around it.
package linker

import (
	"strings"

	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/diag"
	"github.com/pthm/pansqlc/internal/dictionary"
	"github.com/pthm/pansqlc/internal/ir"
	"github.com/pthm/pansqlc/internal/sema"
	"github.com/pthm/pansqlc/internal/symtab"
	"github.com/pthm/pansqlc/internal/types"
)

// Link assembles the whole-program IR from a script's resolved statements
// and the transformers already lowered from them. It returns warnings
// alongside a successful link (e.g. an auto-map candidate that turned out
// field-incompatible); those never abort the compile.
func Link(script *ast.Script, result *sema.Result, transformers []ir.Transformer) (*ir.Program, *diag.Warnings, error) {
	warnings := &diag.Warnings{}

	sync, err := findSync(script)
	if err != nil {
		return nil, nil, err
	}

	reader, ok := result.Symbols.Lookup(sync.ReaderName)
	if !ok || reader.Kind != symtab.KindReader {
		return nil, nil, diag.New(diag.RuleResolve, "%q is not a declared reader", sync.ReaderName)
	}
	writer, ok := result.Symbols.Lookup(sync.WriterName)
	if !ok || writer.Kind != symtab.KindWriter {
		return nil, nil, diag.New(diag.RuleResolve, "%q is not a declared writer", sync.WriterName)
	}
	inputDict, outputDict := reader.OriginDict, writer.OriginDict

	opens := buildOpens(script)

	handled := make(map[string]bool)
	tableDeclared := make(map[string]bool)
	for _, stmt := range script.Statements {
		decl, ok := stmt.(*ast.Decl)
		if !ok || decl.Kind != ast.DeclTable {
			continue
		}
		tableDeclared[streamKey(decl.Ref.Dict, decl.Ref.Stream)] = true
	}

	var nameMaps []ir.NameMap

	// Explicit maps first: a script's own "map" statements always take
	// precedence and are never second-guessed by the auto-mapper.
	for _, rm := range result.Maps {
		if err := validateMapTypes(rm); err != nil {
			return nil, nil, err
		}
		nameMaps = append(nameMaps, ir.NameMap{
			SrcDict:   rm.SrcDictName,
			SrcStream: rm.SrcStreamDef.Name,
			DstDict:   rm.DstDictName,
			DstStream: rm.DstStreamDef.Name,
			FieldMap:  rm.FieldMap,
			Explicit:  true,
		})
		handled[streamKey(rm.SrcDictName, rm.SrcStreamDef.Name)] = true
	}

	// Select-implied maps next, in script declaration order (not
	// result.Selects' map iteration order) so the emitted artifact is
	// byte-identical across runs for the same script.
	for _, stmt := range script.Statements {
		sel, ok := stmt.(*ast.Select)
		if !ok {
			continue
		}
		rs, ok := result.Selects[sel]
		if !ok {
			return nil, nil, diag.New(diag.RuleStructural, "select has no resolved binding")
		}
		key := streamKey(rs.FromDictName, rs.FromStreamDef.Name)
		if handled[key] {
			continue
		}
		handled[key] = true
		nameMaps = append(nameMaps, ir.NameMap{
			SrcDict:   rs.FromDictName,
			SrcStream: rs.FromStreamDef.Name,
			DstDict:   rs.IntoDictName,
			DstStream: rs.IntoStreamDef.Name,
		})
	}

	// Auto-map whatever the script never mentioned: same-named,
	// field-compatible streams in the input dictionary that aren't
	// Table-declared (those are join-lookup tables, not part of the
	// output flow) and weren't already claimed above.
	readerAlias := reader.OriginDictName
	if inputDict != nil {
		for _, stream := range inputDict.Streams {
			key := streamKey(readerAlias, stream.Name)
			if handled[key] || tableDeclared[key] {
				continue
			}
			dstStream, ok := outputDict.Stream(stream.Name)
			if !ok {
				warnings.Add("no same-named stream %q in the output dictionary to auto-map to", stream.Name)
				continue
			}
			if !streamCompatible(stream, dstStream) {
				warnings.Add("stream %q is not field-compatible with output stream %q; skipping auto-map", stream.Name, dstStream.Name)
				continue
			}
			nameMaps = append(nameMaps, ir.NameMap{
				SrcDict:    readerAlias,
				SrcStream:  stream.Name,
				DstDict:    writer.OriginDictName,
				DstStream:  dstStream.Name,
				AutoMapped: true,
			})
		}
	}

	return &ir.Program{
		Transformers: transformers,
		NameMaps:     nameMaps,
		Opens:        opens,
		Sync:         ir.SyncEdge{ReaderName: sync.ReaderName, WriterName: sync.WriterName},
	}, warnings, nil
}

func findSync(script *ast.Script) (*ast.Sync, error) {
	for _, stmt := range script.Statements {
		if s, ok := stmt.(*ast.Sync); ok {
			return s, nil
		}
	}
	return nil, diag.New(diag.RuleStructural, "script declares no sync statement")
}

func buildOpens(script *ast.Script) []ir.OpenEndpoint {
	var opens []ir.OpenEndpoint
	for _, stmt := range script.Statements {
		o, ok := stmt.(*ast.Open)
		if !ok {
			continue
		}
		opens = append(opens, ir.OpenEndpoint{
			Name:       o.Name,
			Connector:  o.Connector,
			Direction:  o.Direction,
			ConnString: o.ConnString,
		})
	}
	return opens
}

func streamKey(dictAlias, streamName string) string {
	return strings.ToLower(dictAlias) + "." + streamName
}

// streamCompatible reports whether every field of src has a same-named,
// assignable counterpart in dst and every non-nullable field of dst is
// covered — the same rule checkProjection applies to a select's explicit
// column list, applied here to a whole-stream implicit passthrough.
// Dictionary-to-dictionary name comparison stays exact-case: neither side
// here is a script-bound identifier.
func streamCompatible(src, dst dictionary.StreamDefinition) bool {
	assigned := make(map[string]bool, len(src.Fields))
	for _, f := range src.Fields {
		df, ok := dst.Field(f.Name)
		if !ok {
			return false
		}
		if !types.Assignable(f.FieldType(), df.FieldType()) {
			return false
		}
		assigned[df.Name] = true
	}
	for _, df := range dst.Fields {
		if !df.Nullable && !assigned[df.Name] {
			return false
		}
	}
	return true
}

// validateMapTypes checks an explicit Map statement's field assignments
// for type compatibility. Fields the map doesn't mention pass through by
// same name, mirroring the auto-mapper's implicit rule.
func validateMapTypes(rm sema.ResolvedMap) error {
	renameBySrc := make(map[string]string, len(rm.FieldMap))
	for _, fr := range rm.FieldMap {
		renameBySrc[strings.ToLower(fr.Dst)] = fr.Src
	}

	for _, df := range rm.DstStreamDef.Fields {
		srcName := df.Name
		if s, ok := renameBySrc[strings.ToLower(df.Name)]; ok {
			srcName = s
		}
		sf, ok := rm.SrcStreamDef.FieldFold(srcName)
		if !ok {
			if df.Nullable {
				continue
			}
			return diag.New(diag.RuleResolve, "field %q on %s has no source field %q to map from", df.Name, rm.DstStreamDef.Name, srcName)
		}
		if !types.Assignable(sf.FieldType(), df.FieldType()) {
			return diag.New(diag.RuleTyping, "field %q on %s (%s) cannot accept %s (%s)", df.Name, rm.DstStreamDef.Name, df.Tag, sf.Name, sf.Tag)
		}
	}
	return nil
}

// Package emitter renders a linked Program IR into the three deterministic
// text artifacts §4.7 describes: the program source (a Sync class with one
// method per transformer, a constructor registering transformers and name
// maps, and a main entry point), a project/build manifest, and a
// connectors manifest. Identifier numbering, ordering, and whitespace are
// fixed so two compiles of the same program produce byte-identical output
// (§8 testable property 1).
package emitter

import (
	"fmt"
	"strings"

	"github.com/pthm/pansqlc/internal/ast"
	"github.com/pthm/pansqlc/internal/codegen/exprdsl"
	"github.com/pthm/pansqlc/internal/connectorcat"
	"github.com/pthm/pansqlc/internal/diag"
	"github.com/pthm/pansqlc/internal/dictionary"
	"github.com/pthm/pansqlc/internal/ir"
)

// networkConnectorName is the connector internal/netpass pairs across
// scripts; its conn string carries a handoff temp-file path worth naming
// distinctly in the emitted main function.
const networkConnectorName = "Network"

// Artifacts is the three text blobs a single script compiles to (§6).
type Artifacts struct {
	ProgramSource      string
	ProjectManifest    string
	ConnectorsManifest string
}

// Emit renders program (already linked by internal/linker) as scriptName's
// artifacts. dictionaries maps every dictionary alias name program.NameMaps
// references (both the Src and Dst side) to its loaded DataDictionary, so
// the program source can embed each one's compressed blob exactly once.
func Emit(scriptName string, program *ir.Program, dictionaries map[string]*dictionary.DataDictionary) (Artifacts, error) {
	src, err := emitProgramSource(scriptName, program, dictionaries)
	if err != nil {
		return Artifacts{}, err
	}
	return Artifacts{
		ProgramSource:      src,
		ProjectManifest:    emitProjectManifest(program),
		ConnectorsManifest: emitConnectorsManifest(program),
	}, nil
}

func emitProgramSource(scriptName string, program *ir.Program, dictionaries map[string]*dictionary.DataDictionary) (string, error) {
	c := &counter{}
	var b strings.Builder

	fmt.Fprintf(&b, "// %s — generated by pansqlc. Do not edit.\n\n", scriptName)
	b.WriteString("using PanSQL.Runtime;\n\n")
	b.WriteString("public sealed class Sync : StreamTransformerBase\n{\n")

	dictFields, err := emitDictionaryBlobs(&b, program, dictionaries)
	if err != nil {
		return "", err
	}
	if dictFields {
		b.WriteString("\n")
	}

	type transformerEntry struct {
		name   string
		stream string
	}
	var entries []transformerEntry

	for _, tr := range program.Transformers {
		name := c.transformer()
		entries = append(entries, transformerEntry{name: name, stream: tr.InputStream})
		if err := emitTransformerMethod(&b, c, name, tr); err != nil {
			return "", err
		}
		b.WriteString("\n")
	}

	b.WriteString("    public Sync()\n    {\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "        RegisterTransformer(%q, %s);\n", e.stream, e.name)
	}
	for _, m := range program.NameMaps {
		fmt.Fprintf(&b, "        RegisterNameMap(%q, %q, %q, %q);\n", m.SrcDict, m.SrcStream, m.DstDict, m.DstStream)
		for _, fr := range m.FieldMap {
			fmt.Fprintf(&b, "        RegisterFieldRename(%q, %q, %q);\n", m.DstStream, fr.Dst, fr.Src)
		}
	}
	b.WriteString("    }\n\n")

	if err := emitMain(&b, c, program); err != nil {
		return "", err
	}

	b.WriteString("}\n")
	return b.String(), nil
}

// emitDictionaryBlobs embeds one compressed-and-fingerprinted blob per
// distinct dictionary program.NameMaps references, in first-reference
// order, the same codec internal/dictionary's wire form uses for
// internal/netpass's handoff file.
func emitDictionaryBlobs(b *strings.Builder, program *ir.Program, dictionaries map[string]*dictionary.DataDictionary) (bool, error) {
	var names []string
	seen := make(map[string]bool)
	addDict := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, m := range program.NameMaps {
		addDict(m.SrcDict)
		addDict(m.DstDict)
	}

	for _, name := range names {
		dict, ok := dictionaries[name]
		if !ok {
			return false, diag.New(diag.RuleStructural, "no loaded dictionary supplied for %q", name)
		}
		blob, err := dictionary.Compress(dict)
		if err != nil {
			return false, diag.Wrap(diag.RuleIO, err, "compressing dictionary %q", name)
		}
		fp, err := dictionary.Fingerprint(dict)
		if err != nil {
			return false, diag.Wrap(diag.RuleIO, err, "fingerprinting dictionary %q", name)
		}
		fmt.Fprintf(b, "    // fingerprint 0x%016x\n", fp)
		fmt.Fprintf(b, "    private static readonly string dict_%s = %q;\n", name, blob)
	}
	return len(names) > 0, nil
}

func emitTransformerMethod(b *strings.Builder, c *counter, name string, tr ir.Transformer) error {
	if tr.IsTableBootstrap {
		fmt.Fprintf(b, "    private void %s(IRowReader reader)\n    {\n", name)
		b.WriteString("        while (reader.Advance())\n        {\n")
		fmt.Fprintf(b, "            %s.Insert(new object[]\n            {\n", tr.OutputStream)
		for _, slot := range tr.Slots {
			rc, ok := slot.(ir.ReaderColumnSlot)
			if !ok {
				return diag.New(diag.RuleStructural, "table bootstrap slot must be a reader column")
			}
			fmt.Fprintf(b, "                reader.%s(%d),\n", accessorFor(rc.Tag), rc.Idx)
		}
		b.WriteString("            });\n        }\n    }\n")
		return nil
	}

	fmt.Fprintf(b, "    private IEnumerable<object[]> %s(IRowReader reader)\n    {\n", name)

	var aggVarByIdx []string
	if tr.Aggregation != nil {
		for _, agg := range tr.Aggregation.Aggregators {
			v := c.aggregator()
			aggVarByIdx = append(aggVarByIdx, v)
			valueArg := "-1"
			if agg.ValueColIdx >= 0 {
				valueArg = fmt.Sprintf("%d", agg.ValueColIdx)
			}
			fmt.Fprintf(b, "        var %s = new %sAggregator(valueIdx: %s);\n", v, agg.Kind.String(), valueArg)
		}
	}

	aggVar := func(idx int) string {
		if idx < 0 || idx >= len(aggVarByIdx) {
			return fmt.Sprintf("aggregator__%d", idx)
		}
		return aggVarByIdx[idx]
	}

	constNames := make(map[int]string, len(tr.ConstHoist))
	for _, idx := range tr.ConstHoist {
		slot, ok := tr.Slots[idx].(ir.ConstLiteralSlot)
		if !ok {
			return diag.New(diag.RuleStructural, "const-hoisted slot is not a literal")
		}
		litExpr, err := lowerExpr(ir.Literal{Kind: slot.Kind, Text: slot.Text}, "reader", nil)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("const__%d", idx)
		constNames[idx] = name
		fmt.Fprintf(b, "        var %s = %s;\n", name, litExpr.Render())
	}

	if tr.Aggregation != nil {
		keyIdx := 0
		if len(tr.Aggregation.Aggregators) > 0 {
			keyIdx = tr.Aggregation.Aggregators[0].KeyColIdx
		}
		fmt.Fprintf(b, "        foreach (var group in AggregateReader.Combine(reader, keyIdx: %d, %s))\n        {\n", keyIdx, strings.Join(aggVarByIdx, ", "))
	} else {
		b.WriteString("        while (reader.Advance())\n        {\n")
	}

	indent := "            "

	if tr.Join != nil {
		probeVal := exprdsl.ReaderCol{ReaderVar: "reader", Idx: tr.Join.ProbeColumnIdx, Accessor: "GetValue"}
		fmt.Fprintf(b, "%sif (!%s.TryGetByKey(%s, out var %s)) continue;\n", indent, tr.Join.TableStream, probeVal.Render(), tr.Join.TableAlias)
	}

	if tr.Filter != nil {
		filterExpr, err := lowerExpr(tr.Filter, "reader", nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%sif (!(%s)) continue;\n", indent, filterExpr.Render())
	}

	if tr.Aggregation != nil && tr.Aggregation.Having != nil {
		havingExpr, err := lowerExpr(tr.Aggregation.Having, "reader", aggVar)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%sif (!(%s)) continue;\n", indent, havingExpr.Render())
	}

	b.WriteString(indent + "yield return new object[]\n" + indent + "{\n")
	for i, slot := range tr.Slots {
		rendered, err := renderSlot(slot, i, aggVar, constNames)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s    %s,\n", indent, rendered)
	}
	b.WriteString(indent + "};\n")
	b.WriteString("        }\n    }\n")
	return nil
}

func renderSlot(slot ir.Slot, idx int, aggVar func(int) string, constNames map[int]string) (string, error) {
	switch s := slot.(type) {
	case ir.ReaderColumnSlot:
		return fmt.Sprintf("reader.%s(%d)", accessorFor(s.Tag), s.Idx), nil
	case ir.ConstLiteralSlot:
		if name, ok := constNames[idx]; ok {
			return name, nil
		}
		e, err := lowerExpr(ir.Literal{Kind: s.Kind, Text: s.Text}, "reader", nil)
		if err != nil {
			return "", err
		}
		return e.Render(), nil
	case ir.JoinColumnSlot:
		return exprdsl.FuncCall{
			Name: s.TableAlias + ".Field",
			Args: []exprdsl.Expr{exprdsl.Int(s.FieldIdx)},
		}.Render(), nil
	case ir.AggregatorOutputSlot:
		return exprdsl.AggregatorOutput{Var: aggVar(s.AggIdx), IsKey: s.IsKey}.Render(), nil
	default:
		return "", diag.New(diag.RuleStructural, "unrenderable projection slot")
	}
}

func emitMain(b *strings.Builder, c *counter, program *ir.Program) error {
	b.WriteString("    public static void Main(string[] args)\n    {\n")

	readerVarByName := make(map[string]string)
	var writerVar string
	for _, o := range program.Opens {
		connArg := fmt.Sprintf("%q", o.ConnString)
		if o.Connector == networkConnectorName {
			// A Network endpoint's conn string carries the multi-script
			// handoff file internal/netpass appended; name it so the
			// temp-file path it embeds reads as what it is.
			f := c.filename()
			fmt.Fprintf(b, "        var %s = %q;\n", f, o.ConnString)
			connArg = f
		}
		if o.Direction == ast.DirRead {
			v := c.reader()
			readerVarByName[o.Name] = v
			fmt.Fprintf(b, "        var %s = ConnectorRegistry.GetReader(%q, %s);\n", v, o.Connector, connArg)
		} else {
			if o.Name == program.Sync.WriterName {
				writerVar = o.Name
			}
			fmt.Fprintf(b, "        var %s = ConnectorRegistry.GetWriter(%q, %s);\n", o.Name, o.Connector, connArg)
		}
	}

	b.WriteString("        var sync = new Sync();\n")

	readerVar, ok := readerVarByName[program.Sync.ReaderName]
	if !ok {
		return diag.New(diag.RuleStructural, "sync reader %q has no matching open", program.Sync.ReaderName)
	}
	if writerVar == "" {
		writerVar = program.Sync.WriterName
	}
	fmt.Fprintf(b, "        %s.Pipe(sync).Pipe(%s);\n", readerVar, writerVar)
	b.WriteString("    }\n")
	return nil
}

func emitProjectManifest(program *ir.Program) string {
	var b strings.Builder
	b.WriteString("PanSQL.Runtime\n")
	seen := map[string]bool{}
	for _, o := range program.Opens {
		e, ok := connectorcat.Lookup(o.Connector)
		if !ok || seen[o.Connector] {
			continue
		}
		seen[o.Connector] = true
		fmt.Fprintf(&b, "%s\n", e.Assembly)
	}
	return b.String()
}

func emitConnectorsManifest(program *ir.Program) string {
	var b strings.Builder
	seen := map[string]bool{}
	for _, o := range program.Opens {
		if seen[o.Connector] {
			continue
		}
		e, ok := connectorcat.Lookup(o.Connector)
		if !ok {
			continue
		}
		seen[o.Connector] = true
		fmt.Fprintf(&b, "%s: %s (%s)\n", o.Connector, strings.Join(e.Capabilities.Names(), ", "), e.Assembly)
	}
	return b.String()
}

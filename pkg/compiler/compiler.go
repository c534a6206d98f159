// Package compiler provides the public API for compiling PanSQL scripts
// (§6): Compile for a single script already in memory, CompileFiles for a
// set of scripts on disk that may hand off to each other over a Network
// connector. Both are thin wrappers over the pipeline internal/parser,
// internal/sema, internal/transform, internal/linker, internal/netpass,
// and internal/emitter already implement.
package compiler

import (
	"os"
	"path/filepath"

	"github.com/pthm/pansqlc/internal/diag"
	"github.com/pthm/pansqlc/internal/dictionary"
	"github.com/pthm/pansqlc/internal/emitter"
	"github.com/pthm/pansqlc/internal/ir"
	"github.com/pthm/pansqlc/internal/linker"
	"github.com/pthm/pansqlc/internal/netpass"
	"github.com/pthm/pansqlc/internal/parser"
	"github.com/pthm/pansqlc/internal/sema"
	"github.com/pthm/pansqlc/internal/transform"
)

// Result is one script's compiled output.
type Result struct {
	Artifacts emitter.Artifacts
	Warnings  *diag.Warnings
}

// unit is a compiled-but-not-yet-emitted script. Compile emits it right
// away; CompileFiles holds a batch of these open across internal/netpass's
// pairing pass, since pairing rewrites Opens' conn strings before anything
// can be emitted.
type unit struct {
	name         string
	program      *ir.Program
	dictionaries map[string]*dictionary.DataDictionary
	warnings     *diag.Warnings
	outputDict   *dictionary.DataDictionary
}

func compile(name, src string, loadDict sema.DictionaryLoader) (*unit, error) {
	script, err := parser.Parse(name, src)
	if err != nil {
		return nil, err
	}
	result, err := sema.Analyze(script, loadDict)
	if err != nil {
		return nil, err
	}
	transformers, err := transform.Build(script, result)
	if err != nil {
		return nil, err
	}
	program, warnings, err := linker.Link(script, result, transformers)
	if err != nil {
		return nil, err
	}
	var outputDict *dictionary.DataDictionary
	if writer, ok := result.Symbols.Lookup(program.Sync.WriterName); ok {
		outputDict = writer.OriginDict
	}
	return &unit{
		name:         name,
		program:      program,
		dictionaries: result.Dictionaries,
		warnings:     warnings,
		outputDict:   outputDict,
	}, nil
}

// Compile compiles a single script already read into memory. It never
// runs the multi-script network pass: a Network Open's conn string is
// emitted exactly as the script wrote it, unpaired. Use CompileFiles when
// a set of scripts hand off to each other over Network.
func Compile(name, src string, loadDict sema.DictionaryLoader) (*Result, error) {
	u, err := compile(name, src, loadDict)
	if err != nil {
		return nil, err
	}
	artifacts, err := emitter.Emit(u.name, u.program, u.dictionaries)
	if err != nil {
		return nil, err
	}
	return &Result{Artifacts: artifacts, Warnings: u.warnings}, nil
}

// FileDictionaryLoader resolves a Load statement's dictionary path
// relative to baseDir, the on-disk resolution rule §6 specifies.
func FileDictionaryLoader(baseDir string) sema.DictionaryLoader {
	return func(path string) (*dictionary.DataDictionary, error) {
		return dictionary.Load(filepath.Join(baseDir, path))
	}
}

// FilesResult is CompileFiles' output: one Result per compiled script,
// plus the temp files internal/netpass allocated for any Network handoff.
// The caller owns TempFiles and must remove them once every emitted
// program has been handed to its runtime (§5) — CompileFiles itself never
// deletes them, since it can't know when that has happened.
type FilesResult struct {
	Scripts   map[string]Result
	TempFiles []netpass.TempFile
}

// CompileFiles compiles every script under rootDir, in the order given.
// Order is significant: §4.6's network pass pairs a Network writer only
// with a reader in a script that comes AFTER it in this list.
func CompileFiles(rootDir string, scriptPaths ...string) (*FilesResult, error) {
	units := make([]*unit, 0, len(scriptPaths))
	netUnits := make([]netpass.ScriptUnit, 0, len(scriptPaths))
	for _, p := range scriptPaths {
		raw, err := os.ReadFile(filepath.Join(rootDir, p))
		if err != nil {
			return nil, diag.Wrap(diag.RuleIO, err, "reading script %q", p)
		}
		loadDict := FileDictionaryLoader(filepath.Join(rootDir, filepath.Dir(p)))
		u, err := compile(p, string(raw), loadDict)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
		netUnits = append(netUnits, netpass.ScriptUnit{Name: u.name, Program: u.program, OutputDict: u.outputDict})
	}

	temps, err := netpass.Pair(netUnits)
	if err != nil {
		return nil, err
	}

	scripts := make(map[string]Result, len(units))
	for _, u := range units {
		artifacts, err := emitter.Emit(u.name, u.program, u.dictionaries)
		if err != nil {
			return nil, err
		}
		scripts[u.name] = Result{Artifacts: artifacts, Warnings: u.warnings}
	}
	return &FilesResult{Scripts: scripts, TempFiles: temps}, nil
}

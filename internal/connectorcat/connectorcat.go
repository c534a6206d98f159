// Package connectorcat is the connector capability catalog: for each
// connector name an Open statement may reference, which capabilities it
// exposes and whether its connection string is at least structurally
// well-formed. Per §4.5/§9 the compiler never dials a connector; the
// catalog only records names for the manifests and, where a real parser
// exists for the vendor's connection-string grammar, validates syntax
// without connecting.
package connectorcat

import (
	"fmt"

	mssqldsn "github.com/microsoft/go-mssqldb/msdsn"

	"github.com/jackc/pgx/v5/pgconn"
)

// Capability is one bit of a connector's capability flag set.
type Capability int

const (
	CapAnalyzer Capability = 1 << iota
	CapReader
	CapWriter
	CapConfigurator
	CapQueryable
)

var capabilityNames = []struct {
	bit  Capability
	name string
}{
	{CapAnalyzer, "Analyzer"},
	{CapReader, "Reader"},
	{CapWriter, "Writer"},
	{CapConfigurator, "Configurator"},
	{CapQueryable, "Queryable"},
}

// Names returns the set bits of caps in manifest order.
func (caps Capability) Names() []string {
	var names []string
	for _, c := range capabilityNames {
		if caps&c.bit != 0 {
			names = append(names, c.name)
		}
	}
	return names
}

// Has reports whether caps includes c.
func (caps Capability) Has(c Capability) bool { return caps&c != 0 }

// Entry describes one connector in the catalog: its capability flags, the
// assembly/package reference the connectors manifest records, and an
// optional connection-string validator.
type Entry struct {
	Capabilities Capability
	Assembly     string
	validate     func(connString string) error
}

// Catalog is the fixed set of connectors PanSQL scripts may reference.
var Catalog = map[string]Entry{
	"MSSQL": {
		Capabilities: CapAnalyzer | CapReader | CapWriter | CapConfigurator | CapQueryable,
		Assembly:     "PanSQL.Connectors.MSSQL",
		validate:     validateMSSQL,
	},
	"Postgres": {
		Capabilities: CapAnalyzer | CapReader | CapWriter | CapConfigurator | CapQueryable,
		Assembly:     "PanSQL.Connectors.Postgres",
		validate:     validatePostgres,
	},
	"MySQL": {
		Capabilities: CapAnalyzer | CapReader | CapWriter | CapConfigurator | CapQueryable,
		Assembly:     "PanSQL.Connectors.MySQL",
	},
	"Network": {
		Capabilities: CapReader | CapWriter,
		Assembly:     "PanSQL.Connectors.Network",
	},
	"CSV": {
		Capabilities: CapReader | CapWriter | CapConfigurator,
		Assembly:     "PanSQL.Connectors.CSV",
	},
}

// Lookup resolves a connector name, case-sensitive (connector names are
// not bound identifiers; they name an external registry entry).
func Lookup(name string) (Entry, bool) {
	e, ok := Catalog[name]
	return e, ok
}

// ValidateConnString structurally validates connString against connector's
// known grammar, when one is registered. Connectors without a structural
// validator (MySQL, Network, CSV — no parser for their string shape is in
// the retrieval pack) always succeed; the runtime connector is the only
// thing that can reject them.
func ValidateConnString(connector, connString string) error {
	e, ok := Lookup(connector)
	if !ok {
		return fmt.Errorf("unknown connector %q", connector)
	}
	if e.validate == nil {
		return nil
	}
	return e.validate(connString)
}

func validateMSSQL(connString string) error {
	if _, err := mssqldsn.Parse(connString); err != nil {
		return fmt.Errorf("malformed MSSQL connection string: %w", err)
	}
	return nil
}

func validatePostgres(connString string) error {
	if _, err := pgconn.ParseConfig(connString); err != nil {
		return fmt.Errorf("malformed Postgres connection string: %w", err)
	}
	return nil
}

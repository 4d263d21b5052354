package models

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func sampleIdentifiers() []Identifier {
	return []Identifier{
		{Type: "Identifier", IdentifierType: "TICKER", IdentifierValue: "AAPL US Equity"},
		{Type: "Identifier", IdentifierType: "BB_GLOBAL", IdentifierValue: "BBG000BLNNH6"},
		{Type: "Identifier", IdentifierType: "ISIN", IdentifierValue: "US4592001014"},
	}
}

func TestNewDataRequest(t *testing.T) {
	req := NewDataRequest("BloombergDataRequestabc123", sampleIdentifiers(), DefaultFields())

	if req.Type != "DataRequest" {
		t.Errorf("unexpected @type: %s", req.Type)
	}
	if len(req.Universe.Contains) != 3 {
		t.Errorf("expected 3 universe entries, got %d", len(req.Universe.Contains))
	}
	if len(req.FieldList.Contains) != 10 {
		t.Errorf("expected 10 field entries, got %d", len(req.FieldList.Contains))
	}
	if req.Trigger.Type != "SubmitTrigger" {
		t.Errorf("unexpected trigger: %s", req.Trigger.Type)
	}
	if req.Formatting.OutputMediaType != "application/json" {
		t.Errorf("unexpected output media type: %s", req.Formatting.OutputMediaType)
	}
}

func TestDefaultFieldMnemonics(t *testing.T) {
	want := []string{
		"TOT_DEBT_TO_TOT_ASSET",
		"CASH_DVD_COVERAGE",
		"TOT_DEBT_TO_EBITDA",
		"CUR_RATIO",
		"QUICK_RATIO",
		"GROSS_MARGIN",
		"INTEREST_COVERAGE_RATIO",
		"EBITDA_MARGIN",
		"TOT_LIAB_AND_EQY",
		"NET_DEBT_TO_SHRHLDR_EQTY",
	}

	fields := DefaultFields()
	if len(fields) != len(want) {
		t.Fatalf("expected %d default fields, got %d", len(want), len(fields))
	}
	for i, mnemonic := range want {
		if fields[i].Mnemonic != mnemonic {
			t.Errorf("field %d: expected %s, got %s", i, mnemonic, fields[i].Mnemonic)
		}
	}
}

func TestDataRequestSerialization(t *testing.T) {
	req := NewDataRequest("BloombergDataRequestabc123", sampleIdentifiers(), DefaultFields())

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if doc["@type"] != "DataRequest" {
		t.Errorf("unexpected @type: %v", doc["@type"])
	}
	universe, ok := doc["universe"].(map[string]interface{})
	if !ok {
		t.Fatal("universe missing from document")
	}
	if universe["@type"] != "Universe" {
		t.Errorf("unexpected universe @type: %v", universe["@type"])
	}
	contains, ok := universe["contains"].([]interface{})
	if !ok || len(contains) != 3 {
		t.Errorf("unexpected universe contains: %v", universe["contains"])
	}
}

func TestLoadIdentifiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identifiers.json")
	content := `[
  {"@type":"Identifier","identifierType":"TICKER","identifierValue":"AAPL US Equity"},
  {"@type":"Identifier","identifierType":"BB_GLOBAL","identifierValue":"BBG000BLNNH6"},
  {"@type":"Identifier","identifierType":"ISIN","identifierValue":"US4592001014"}
]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write identifiers file: %v", err)
	}

	identifiers, err := LoadIdentifiers(path)
	if err != nil {
		t.Fatalf("LoadIdentifiers failed: %v", err)
	}
	if len(identifiers) != 3 {
		t.Fatalf("expected 3 identifiers, got %d", len(identifiers))
	}
	if identifiers[0].IdentifierType != "TICKER" || identifiers[0].IdentifierValue != "AAPL US Equity" {
		t.Errorf("unexpected first identifier: %+v", identifiers[0])
	}
	if identifiers[2].IdentifierType != "ISIN" {
		t.Errorf("unexpected third identifier: %+v", identifiers[2])
	}
}

func TestLoadIdentifiersMissingFile(t *testing.T) {
	if _, err := LoadIdentifiers(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadIdentifiersEmptyUniverse(t *testing.T) {
	for _, content := range []string{`[]`, `null`} {
		path := filepath.Join(t.TempDir(), "identifiers.json")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write identifiers file: %v", err)
		}
		if _, err := LoadIdentifiers(path); err == nil {
			t.Errorf("expected error for %s universe, got nil", content)
		}
	}
}

func TestLoadIdentifiersMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identifiers.json")
	if err := os.WriteFile(path, []byte(`{"not":"an array"`), 0o644); err != nil {
		t.Fatalf("write identifiers file: %v", err)
	}
	if _, err := LoadIdentifiers(path); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

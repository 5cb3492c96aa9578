package crates

import (
	"strings"
	"testing"
)

func TestReadCrates(t *testing.T) {
	// Column order differs from the struct on purpose; lookup is by header.
	dump := `created_at,description,downloads,homepage,id,name
2015-01-01,"Serialization framework",150000,https://serde.rs,25,serde
2015-02-01,"A crate with
an embedded newline",42,,26,weird
`
	got, err := ReadCrates(strings.NewReader(dump))
	if err != nil {
		t.Fatalf("ReadCrates failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 crates, got %d", len(got))
	}
	if got[0].ID != 25 || got[0].Name != "serde" || got[0].Downloads != 150000 {
		t.Errorf("unexpected first crate: %+v", got[0])
	}
	if !strings.Contains(got[1].Description, "embedded newline") {
		t.Errorf("multiline description lost: %q", got[1].Description)
	}
}

func TestReadCratesMissingColumn(t *testing.T) {
	if _, err := ReadCrates(strings.NewReader("id,name\n1,serde\n")); err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestReadVersions(t *testing.T) {
	dump := `checksum,crate_id,num,yanked
abc,25,1.0.203,f
def,25,1.0.100,f
`
	got, err := ReadVersions(strings.NewReader(dump))
	if err != nil {
		t.Fatalf("ReadVersions failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(got))
	}
	if got[0].CrateID != 25 || got[0].Num != "1.0.203" {
		t.Errorf("unexpected first version: %+v", got[0])
	}
}

func TestReadVersionsBadCrateID(t *testing.T) {
	if _, err := ReadVersions(strings.NewReader("crate_id,num\nnope,1.0.0\n")); err == nil {
		t.Fatal("expected error for unparsable crate_id")
	}
}

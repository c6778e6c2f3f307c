package domain

import "testing"

func TestRegistry_LookupIgnoresCase(t *testing.T) {
	r := NewRegistry(
		Database{Code: "OP7", DataFile: "odesa_oblast.json"},
		Database{Code: "usa", DataFile: "ies4_usa_consolidated.json"},
	)

	tests := []struct {
		code     string
		wantFile string
		wantOK   bool
	}{
		{"OP7", "odesa_oblast.json", true},
		{"op7", "odesa_oblast.json", true},
		{" USA ", "ies4_usa_consolidated.json", true},
		{"OP9", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			db, ok := r.Lookup(tt.code)
			if ok != tt.wantOK || db.DataFile != tt.wantFile {
				t.Errorf("Lookup(%q) = %+v, %v", tt.code, db, ok)
			}
		})
	}
}

func TestRegistry_WithOverridesAndKeepsOrder(t *testing.T) {
	base := NewRegistry(
		Database{Code: "OP1", DataFile: "donetsk_oblast.json"},
		Database{Code: "OP2", DataFile: "dnipropetrovsk_oblast.json"},
	)

	r := base.With(
		Database{Code: "op1", DataFile: "donetsk_v2.json"},
		Database{Code: "LAB", DataFile: "lab.json"},
	)

	if db, _ := r.Lookup("OP1"); db.DataFile != "donetsk_v2.json" {
		t.Errorf("override not applied: %+v", db)
	}
	if db, _ := base.Lookup("OP1"); db.DataFile != "donetsk_oblast.json" {
		t.Error("base registry mutated")
	}

	all := r.All()
	if len(all) != 3 || all[0].DataFile != "donetsk_v2.json" || all[2].Code != "LAB" {
		t.Errorf("unexpected order: %+v", all)
	}
}

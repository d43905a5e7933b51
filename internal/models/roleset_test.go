package models

import (
	"testing"
)

func TestParseRoleSet(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "simple", input: "front_desk,hygiene", want: []string{"front_desk", "hygiene"}},
		{name: "whitespace trimmed", input: " front_desk , hygiene ", want: []string{"front_desk", "hygiene"}},
		{name: "empty entries dropped", input: "front_desk,,  ,hygiene", want: []string{"front_desk", "hygiene"}},
		{name: "only whitespace is unrestricted", input: " , ,  ", want: []string{}},
		{name: "empty string", input: "", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRoleSet(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseRoleSet(%q) has %d tags, want %d", tt.input, len(got), len(tt.want))
			}
			for _, tag := range tt.want {
				if !got.Contains(tag) {
					t.Errorf("ParseRoleSet(%q) missing tag %q", tt.input, tag)
				}
			}
		})
	}
}

func TestRoleSetContainsIsCaseSensitive(t *testing.T) {
	set := ParseRoleSet("hygiene")
	if !set.Contains("hygiene") {
		t.Error("expected exact match to be contained")
	}
	if set.Contains("Hygiene") {
		t.Error("matching must be case-sensitive")
	}
}

func TestRoleSetRoundTrip(t *testing.T) {
	set := NewRoleSet("manager", "front_desk", "hygiene")

	val, err := set.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var scanned RoleSet
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	if scanned.String() != "front_desk,hygiene,manager" {
		t.Errorf("round trip produced %q", scanned.String())
	}
}

func TestRoleSetScanNil(t *testing.T) {
	var set RoleSet
	if err := set.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if !set.IsEmpty() {
		t.Error("scanning nil should yield an empty set")
	}
}

func TestRoleSetAdd(t *testing.T) {
	set := NewRoleSet("manager")
	if added := set.Add("manager"); added {
		t.Error("adding an existing tag should report false")
	}
	if added := set.Add("hygiene"); !added {
		t.Error("adding a new tag should report true")
	}
	if added := set.Add("  "); added {
		t.Error("adding a blank tag should report false")
	}
}

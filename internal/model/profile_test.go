package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"clean", []string{"Go", "SQL"}, []string{"Go", "SQL"}},
		{"trims", []string{"  Go ", "\tSQL\n"}, []string{"Go", "SQL"}},
		{"drops blanks", []string{"", "   ", "Go"}, []string{"Go"}},
		{"first occurrence wins", []string{"SQL", "Go", "SQL", " Go"}, []string{"SQL", "Go"}},
		{"case sensitive", []string{"go", "Go"}, []string{"go", "Go"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeTags(tc.in)
			if got == nil {
				t.Fatal("NormalizeTags() returned nil")
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("NormalizeTags(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTagsPtr_NoArgsMeansClear(t *testing.T) {
	p := TagsPtr()
	if p == nil || *p == nil || len(*p) != 0 {
		t.Fatalf("TagsPtr() = %v, want pointer to empty slice", p)
	}
}

func TestTagKind_Valid(t *testing.T) {
	for _, k := range []TagKind{TagSkills, TagInterests} {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if TagKind("profiles").Valid() {
		t.Error("profiles must not be a tag collection")
	}
}

// The wire shape must keep "absent" and "empty" apart for the collections.
func TestProfilePatch_JSONDistinguishesAbsentFromEmpty(t *testing.T) {
	tests := []struct {
		body       string
		wantNil    bool
		wantLength int
	}{
		{`{}`, true, 0},
		{`{"skills":null}`, true, 0},
		{`{"skills":[]}`, false, 0},
		{`{"skills":["Go"]}`, false, 1},
	}
	for _, tc := range tests {
		t.Run(tc.body, func(t *testing.T) {
			var patch ProfilePatch
			if err := json.Unmarshal([]byte(tc.body), &patch); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if (patch.Skills == nil) != tc.wantNil {
				t.Fatalf("Skills nil = %v, want %v", patch.Skills == nil, tc.wantNil)
			}
			if patch.Skills != nil && len(*patch.Skills) != tc.wantLength {
				t.Errorf("len(Skills) = %d, want %d", len(*patch.Skills), tc.wantLength)
			}
		})
	}
}

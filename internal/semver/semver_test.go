package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Version
		wantErr bool
	}{
		{"simple", "1.2.3", Version{1, 2, 3}, false},
		{"zero", "0.0.0", Version{0, 0, 0}, false},
		{"padded whitespace", "  2.0.0\n", Version{2, 0, 0}, false},
		{"missing component", "1.2", Version{}, true},
		{"non-numeric", "1.x.3", Version{}, true},
		{"negative", "1.-1.3", Version{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "1.2.3", (Version{1, 2, 3}).String())
}

func TestApply(t *testing.T) {
	v := Version{1, 2, 3}

	tests := []struct {
		bump BumpClass
		want Version
	}{
		{Major, Version{2, 0, 0}},
		{Minor, Version{1, 3, 0}},
		{Patch, Version{1, 2, 4}},
	}

	for _, tt := range tests {
		t.Run(string(tt.bump), func(t *testing.T) {
			got, err := Apply(v, tt.bump)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Apply(%v, %v) = %v, want %v", v, tt.bump, got, tt.want)
			}
		})
	}
}

func TestApplyInvalidBump(t *testing.T) {
	_, err := Apply(Version{1, 0, 0}, BumpClass("nonsense"))
	assert.Error(t, err)
}

func TestMax(t *testing.T) {
	tests := []struct {
		a, b, want BumpClass
	}{
		{Major, Minor, Major},
		{Minor, Major, Major},
		{Patch, Patch, Patch},
		{"", Minor, Minor},
		{Minor, "", Minor},
		{"", "", ""},
	}

	for _, tt := range tests {
		if got := Max(tt.a, tt.b); got != tt.want {
			t.Errorf("Max(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

// apply_bump(apply_bump(v, patch), b) >= apply_bump(v, b) in semver order —
// applying a patch bump first never leaves the result below what b alone
// produces.
func TestApplyPatchThenBumpDominatesDirectBump(t *testing.T) {
	versions := []Version{{0, 0, 0}, {1, 2, 3}, {5, 0, 9}}
	bumps := []BumpClass{Major, Minor, Patch}

	for _, v := range versions {
		for _, b := range bumps {
			viaPatch, err := Apply(v, Patch)
			if err != nil {
				t.Fatal(err)
			}
			viaPatchThenB, err := Apply(viaPatch, b)
			if err != nil {
				t.Fatal(err)
			}
			direct, err := Apply(v, b)
			if err != nil {
				t.Fatal(err)
			}
			if viaPatchThenB.Compare(direct) < 0 {
				t.Errorf("apply(apply(%v,patch),%v) = %v < apply(%v,%v) = %v", v, b, viaPatchThenB, v, b, direct)
			}
		}
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		old  Version
		next Version
		want BumpClass
	}{
		{"major bump", Version{1, 2, 3}, Version{2, 0, 0}, Major},
		{"minor bump", Version{1, 2, 3}, Version{1, 3, 0}, Minor},
		{"patch bump", Version{1, 2, 3}, Version{1, 2, 4}, Patch},
		{"unchanged", Version{1, 2, 3}, Version{1, 2, 3}, ""},
		{"regression", Version{1, 2, 3}, Version{1, 2, 0}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.old, tt.next))
		})
	}
}

func TestMaxCommutativeAssociativeIdempotent(t *testing.T) {
	classes := []BumpClass{Major, Minor, Patch}
	for _, a := range classes {
		for _, b := range classes {
			if Max(a, b) != Max(b, a) {
				t.Errorf("Max not commutative for %v, %v", a, b)
			}
			if Max(a, a) != a {
				t.Errorf("Max not idempotent for %v", a)
			}
			for _, c := range classes {
				if Max(Max(a, b), c) != Max(a, Max(b, c)) {
					t.Errorf("Max not associative for %v, %v, %v", a, b, c)
				}
			}
		}
	}
	for _, a := range classes {
		if Max(a, Patch) != a {
			t.Errorf("Patch is not identity for Max: Max(%v, patch) = %v", a, Max(a, Patch))
		}
	}
}

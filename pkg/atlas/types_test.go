package atlas

import (
	"errors"
	"testing"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		key     string
		want    NodeID
		wantErr bool
	}{
		{"artifact:Death Stranding", ArtifactID("Death Stranding"), false},
		{"artifact:a:b", ArtifactID("a:b"), false},
		{"link:0", LinkID(0), false},
		{"link:19", LinkID(19), false},
		{"link:-1", NodeID{}, true},
		{"link:x", NodeID{}, true},
		{"artifact:", NodeID{}, true},
		{"game:Sky", NodeID{}, true},
		{"Sky", NodeID{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := ParseKey(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("ParseKey() error = %v, want ErrInvalidKey", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKey() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseKey() = %+v, want %+v", got, tt.want)
			}
			if got.Key() != tt.key {
				t.Errorf("round trip = %q, want %q", got.Key(), tt.key)
			}
		})
	}
}

func TestKeySpacesDisjoint(t *testing.T) {
	if ArtifactID("0").Key() == LinkID(0).Key() {
		t.Error("artifact named 0 collides with link 0")
	}
}

func TestArtifactDescription(t *testing.T) {
	tests := []struct {
		name string
		art  Artifact
		want string
	}{
		{"developers only", Artifact{Developers: "FromSoftware"}, "FromSoftware"},
		{"with about", Artifact{Developers: "Popcannibal", About: "a game about writing letters to others"}, "Popcannibal - a game about writing letters to others"},
		{"about only", Artifact{About: "letters"}, "letters"},
		{"empty", Artifact{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.art.Description(); got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLinkWeights(t *testing.T) {
	minor := Link{Group: GroupMinor}
	major := Link{Group: GroupMajor}
	if minor.Distance() != 20 || minor.Strength() != 0.8 {
		t.Errorf("minor weights = %v/%v", minor.Distance(), minor.Strength())
	}
	if major.Distance() != 60 || major.Strength() != 0.4 {
		t.Errorf("major weights = %v/%v", major.Distance(), major.Strength())
	}
}

func TestGroupString(t *testing.T) {
	for g, want := range map[Group]string{GroupArtifact: "artifact", GroupMinor: "minor", GroupMajor: "major", 5: "group(5)"} {
		if got := g.String(); got != want {
			t.Errorf("Group(%d).String() = %q, want %q", int(g), got, want)
		}
	}
}

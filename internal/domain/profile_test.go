package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinProfiles_Valid(t *testing.T) {
	for name, p := range BuiltinProfiles() {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, p.Validate())
			assert.Equal(t, name, p.Name)
			assert.Equal(t, "Western", p.Area)
		})
	}
}

func TestProfile_Validate(t *testing.T) {
	period := []Section{{Source: SourcePeriod}}

	tests := []struct {
		name    string
		profile Profile
		wantErr string
	}{
		{"missing name", Profile{Area: "Western", Sections: period}, "name is required"},
		{"missing area", Profile{Name: "x", Sections: period}, "area is required"},
		{"unknown policy", Profile{Name: "x", Area: "Western", Policy: "latest", Sections: period}, "unknown policy"},
		{"negative index", Profile{Name: "x", Area: "Western", PeriodIndex: -1, Sections: period}, "period_index"},
		{"no sections", Profile{Name: "x", Area: "Western"}, "at least one section"},
		{"unknown source", Profile{Name: "x", Area: "Western", Sections: []Section{{Source: "radar"}}}, "unknown source"},
		{"types on warnings", Profile{Name: "x", Area: "Western", Sections: []Section{{Source: SourceWarnings, Types: []string{"forecast"}}}}, "types only apply"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProfile_ValidateDefaultsPolicy(t *testing.T) {
	p := Profile{Name: "x", Area: "Western", Sections: []Section{{Source: SourcePeriod}}}
	require.NoError(t, p.Validate())
	assert.Equal(t, PolicyIndex, p.Policy)
}

func TestLoadProfiles(t *testing.T) {
	doc := `
profiles:
  - name: hobart
    area: Hobart
    policy: next
    sections:
      - source: issue_time
      - source: synoptic
        area: Tasmania
        label: true
      - source: period
        label: true
        prefix: "Next "
        types: [forecast, precis]
  - name: western
    area: Western
    period_index: 1
    sections:
      - source: period
`
	profiles, err := LoadProfiles(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	hobart := profiles[0]
	assert.Equal(t, "Hobart", hobart.Area)
	assert.Equal(t, PolicyNext, hobart.Policy)
	require.Len(t, hobart.Sections, 3)
	assert.Equal(t, Section{Source: SourceSynoptic, Area: "Tasmania", Label: true}, hobart.Sections[1])
	assert.Equal(t, []string{"forecast", "precis"}, hobart.Sections[2].Types)
	assert.Equal(t, "Next ", hobart.Sections[2].Prefix)

	assert.Equal(t, PolicyIndex, profiles[1].Policy)
	assert.Equal(t, 1, profiles[1].PeriodIndex)
}

func TestLoadProfiles_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"unknown field", "profiles:\n  - name: x\n    area: Western\n    colour: red\n", "decode profiles"},
		{"invalid profile", "profiles:\n  - name: x\n    sections:\n      - source: period\n", "area is required"},
		{"duplicate", "profiles:\n  - {name: x, area: A, sections: [{source: period}]}\n  - {name: x, area: B, sections: [{source: period}]}\n", "duplicate profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProfiles(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadProfiles_EmptyDocument(t *testing.T) {
	profiles, err := LoadProfiles(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestResolveProfile(t *testing.T) {
	p, err := ResolveProfile("western-next", nil)
	require.NoError(t, err)
	assert.Equal(t, PolicyNext, p.Policy)

	override := Profile{Name: "western", Area: "Central Plateau", Policy: PolicyIndex, Sections: []Section{{Source: SourcePeriod}}}
	p, err = ResolveProfile("western", []Profile{override})
	require.NoError(t, err)
	assert.Equal(t, "Central Plateau", p.Area)

	_, err = ResolveProfile("eastern", []Profile{{Name: "hobart"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown profile "eastern"`)
	assert.Contains(t, err.Error(), "hobart")
	assert.Contains(t, err.Error(), "western-detailed")
}

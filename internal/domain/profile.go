package domain

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source identifies where a section's content comes from.
type Source string

const (
	SourceIssueTime Source = "issue_time" // amoc/issue-time-local
	SourceSynoptic  Source = "synoptic"   // synoptic_situation text of a named area
	SourceWarnings  Source = "warnings"   // document-wide warning-summary
	SourcePeriod    Source = "period"     // text items of the selected forecast period
)

// Policy selects the forecast period of the target area.
type Policy string

const (
	// PolicyIndex picks the first period whose index equals Profile.PeriodIndex.
	PolicyIndex Policy = "index"
	// PolicyNext picks the first period, in document order, whose start time
	// is strictly after now.
	PolicyNext Policy = "next"
)

// Section is one block of the excerpt.
type Section struct {
	Source Source `yaml:"source"`
	// Area overrides the profile area for synoptic lookups, e.g. a regional
	// summary area such as "Tasmania".
	Area string `yaml:"area,omitempty"`
	// Label renders "<prefix><type>: <text>" instead of the bare text.
	Label  bool   `yaml:"label,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
	// Types restricts period text items to these type attributes.
	Types []string `yaml:"types,omitempty"`
}

// Profile configures one extraction variant.
type Profile struct {
	Name        string    `yaml:"name"`
	Area        string    `yaml:"area"`
	Policy      Policy    `yaml:"policy"`
	PeriodIndex int       `yaml:"period_index"`
	Sections    []Section `yaml:"sections"`
}

// Validate checks the profile and fills in the default policy.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name is required")
	}
	if strings.TrimSpace(p.Area) == "" {
		return fmt.Errorf("profile %q: area is required", p.Name)
	}
	switch p.Policy {
	case "":
		p.Policy = PolicyIndex
	case PolicyIndex, PolicyNext:
	default:
		return fmt.Errorf("profile %q: unknown policy %q", p.Name, p.Policy)
	}
	if p.PeriodIndex < 0 {
		return fmt.Errorf("profile %q: period_index must be >= 0", p.Name)
	}
	if len(p.Sections) == 0 {
		return fmt.Errorf("profile %q: at least one section is required", p.Name)
	}
	for i, s := range p.Sections {
		switch s.Source {
		case SourceIssueTime, SourceSynoptic, SourceWarnings:
			if len(s.Types) > 0 {
				return fmt.Errorf("profile %q: section %d: types only apply to %q", p.Name, i, SourcePeriod)
			}
		case SourcePeriod:
		default:
			return fmt.Errorf("profile %q: section %d: unknown source %q", p.Name, i, s.Source)
		}
	}
	return nil
}

// BuiltinProfiles returns the west-coast variants, keyed by name.
func BuiltinProfiles() map[string]Profile {
	return map[string]Profile{
		"western": {
			Name:   "western",
			Area:   "Western",
			Policy: PolicyIndex,
			Sections: []Section{
				{Source: SourcePeriod, Types: []string{"forecast"}},
			},
		},
		"western-detailed": {
			Name:   "western-detailed",
			Area:   "Western",
			Policy: PolicyIndex,
			Sections: []Section{
				{Source: SourceIssueTime},
				{Source: SourceSynoptic, Area: "Tasmania", Label: true},
				{Source: SourceWarnings, Label: true},
				{Source: SourcePeriod, Label: true},
			},
		},
		"western-next": {
			Name:   "western-next",
			Area:   "Western",
			Policy: PolicyNext,
			Sections: []Section{
				{Source: SourceWarnings, Label: true},
				{Source: SourcePeriod, Label: true, Prefix: "Next "},
			},
		},
	}
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadProfiles decodes and validates a YAML profile list.
func LoadProfiles(r io.Reader) ([]Profile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc profileFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode profiles: %w", err)
	}

	seen := make(map[string]bool, len(doc.Profiles))
	for i := range doc.Profiles {
		if err := doc.Profiles[i].Validate(); err != nil {
			return nil, err
		}
		name := doc.Profiles[i].Name
		if seen[name] {
			return nil, fmt.Errorf("duplicate profile %q", name)
		}
		seen[name] = true
	}
	return doc.Profiles, nil
}

// ResolveProfile looks up name among the built-ins, with extra profiles
// taking precedence over built-ins of the same name.
func ResolveProfile(name string, extra []Profile) (Profile, error) {
	for _, p := range extra {
		if p.Name == name {
			return p, nil
		}
	}
	builtins := BuiltinProfiles()
	if p, ok := builtins[name]; ok {
		if err := p.Validate(); err != nil {
			return Profile{}, err
		}
		return p, nil
	}

	known := make([]string, 0, len(builtins)+len(extra))
	for n := range builtins {
		known = append(known, n)
	}
	for _, p := range extra {
		known = append(known, p.Name)
	}
	sort.Strings(known)
	return Profile{}, fmt.Errorf("unknown profile %q (known: %s)", name, strings.Join(known, ", "))
}

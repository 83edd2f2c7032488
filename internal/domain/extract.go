package domain

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
)

const synopticType = "synoptic_situation"

// Excerpt is the result of one extraction pass.
type Excerpt struct {
	Profile string
	Area    string
	Text    string
	// Rendered lists the sources that contributed a block, in output order.
	Rendered []Source
	// IssuedAt is the parsed bulletin issue time, zero when absent or malformed.
	IssuedAt        time.Time
	ExtractedAt     time.Time
	TimestampErrors int
}

// Empty reports whether nothing was extracted.
func (e Excerpt) Empty() bool { return e.Text == "" }

// Extractor renders a bulletin into an excerpt according to a profile.
type Extractor struct {
	profile Profile
	logger  *slog.Logger
}

// NewExtractor creates an Extractor for a validated profile.
func NewExtractor(profile Profile, logger *slog.Logger) *Extractor {
	return &Extractor{profile: profile, logger: logger.With("profile", profile.Name)}
}

// Profile returns the profile the extractor renders.
func (x *Extractor) Profile() Profile { return x.profile }

// Extract renders the configured sections. Missing areas, periods, text and
// bad timestamps only omit the affected section.
func (x *Extractor) Extract(b *Bulletin) Excerpt {
	ex := Excerpt{
		Profile:     x.profile.Name,
		Area:        x.profile.Area,
		ExtractedAt: clock.Now(),
	}

	var period *ForecastPeriod
	target, ok := b.FindArea(x.profile.Area)
	if !ok {
		x.logger.Info("forecast area not found", "area", x.profile.Area)
	} else if x.wantsPeriod() {
		x.logger.Info("found forecast area", "area", target.Description)
		period = x.selectPeriod(target, &ex)
	}

	var blocks []string
	for _, s := range x.profile.Sections {
		var lines []string
		switch s.Source {
		case SourceIssueTime:
			lines = x.issueTime(b, &ex)
		case SourceSynoptic:
			lines = x.synoptic(b, s)
		case SourceWarnings:
			lines = x.warnings(b, s)
		case SourcePeriod:
			if period != nil {
				lines = x.periodText(period, s)
			}
		}
		if len(lines) == 0 {
			continue
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
		ex.Rendered = append(ex.Rendered, s.Source)
	}

	ex.Text = strings.Join(blocks, "\n\n")
	return ex
}

func (x *Extractor) wantsPeriod() bool {
	return slices.ContainsFunc(x.profile.Sections, func(s Section) bool {
		return s.Source == SourcePeriod
	})
}

func (x *Extractor) selectPeriod(area *Area, ex *Excerpt) *ForecastPeriod {
	switch x.profile.Policy {
	case PolicyNext:
		now := clock.Now()
		for i := range area.Periods {
			p := &area.Periods[i]
			if p.StartTimeLocal == "" {
				continue
			}
			start, err := ParseLocalTime(p.StartTimeLocal)
			if err != nil {
				ex.TimestampErrors++
				x.logger.Warn("skipping forecast period with bad start time",
					"area", area.Description, "index", p.Index, "error", err)
				continue
			}
			if start.After(now) {
				return p
			}
		}
		x.logger.Info("no future forecast period", "area", area.Description)
	default:
		for i := range area.Periods {
			p := &area.Periods[i]
			if n, err := strconv.Atoi(p.Index); err == nil && n == x.profile.PeriodIndex {
				return p
			}
		}
		x.logger.Info("no forecast period with index",
			"area", area.Description, "index", x.profile.PeriodIndex)
	}
	return nil
}

func (x *Extractor) issueTime(b *Bulletin, ex *Excerpt) []string {
	if b.IssueTimeLocal == "" {
		x.logger.Info("issue time not found")
		return nil
	}
	issued, err := ParseLocalTime(b.IssueTimeLocal)
	if err != nil {
		ex.TimestampErrors++
		x.logger.Warn("skipping unparsable issue time", "error", err)
		return nil
	}
	ex.IssuedAt = issued
	return []string{DescribeIssueTime(issued)}
}

func (x *Extractor) synoptic(b *Bulletin, s Section) []string {
	name := s.Area
	if name == "" {
		name = x.profile.Area
	}
	area, ok := b.FindArea(name)
	if !ok {
		x.logger.Info("synoptic area not found", "area", name)
		return nil
	}
	for _, p := range area.Periods {
		for _, t := range p.Texts {
			if t.Type == synopticType && t.Content != "" {
				return []string{renderLine(s, t.Type, t.Content)}
			}
		}
	}
	x.logger.Info("synoptic situation not found", "area", name)
	return nil
}

func (x *Extractor) warnings(b *Bulletin, s Section) []string {
	if b.WarningSummary == "" {
		x.logger.Info("warning summary not found")
		return nil
	}
	return []string{renderLine(s, "warning_summary", b.WarningSummary)}
}

func (x *Extractor) periodText(p *ForecastPeriod, s Section) []string {
	var lines []string
	for _, t := range p.Texts {
		if t.Content == "" {
			continue
		}
		if len(s.Types) > 0 && !slices.Contains(s.Types, t.Type) {
			continue
		}
		lines = append(lines, renderLine(s, t.Type, t.Content))
	}
	if len(lines) == 0 {
		x.logger.Info("no forecast text in period", "area", x.profile.Area, "index", p.Index)
	}
	return lines
}

// renderLine labels content with its type ("synoptic_situation" becomes
// "synoptic situation") when the section asks for labels.
func renderLine(s Section, typ, content string) string {
	if !s.Label {
		return content
	}
	return s.Prefix + strings.ReplaceAll(typ, "_", " ") + ": " + content
}

// Command checkprofile runs extraction profiles against a local bulletin and
// reports, per profile, whether every configured section produced text. Use it
// to vet a PROFILE_FILE before deploying it, or to spot areas that a new
// bulletin revision no longer carries.
//
// Usage:
//
//	go run ./cmd/checkprofile \
//	  -file data/IDT16000.xml \
//	  -profiles profiles.yaml \
//	  -now 2024-05-01T07:00:00+10:00 \
//	  -show
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/bom-forecast-etl/internal/domain"
)

// phase tracks pass/fail for one profile.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("checkprofile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	bulletinPath := fs.String("file", "", "path to a local bulletin XML file")
	profilesPath := fs.String("profiles", "", "optional YAML file with extra profiles")
	nowFlag := fs.String("now", "", "evaluate 'next' policies at this RFC 3339 time instead of the wall clock")
	show := fs.Bool("show", false, "print each rendered excerpt")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *bulletinPath == "" {
		fs.Usage()
		return 2
	}

	if *nowFlag != "" {
		now, err := time.Parse(time.RFC3339, *nowFlag)
		if err != nil {
			fmt.Fprintf(stderr, "FATAL: invalid -now: %v\n", err)
			return 2
		}
		domain.SetClock(clockwork.NewFakeClockAt(now))
		defer domain.SetClock(nil)
	}

	b, err := domain.ParseBulletinFile(*bulletinPath)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}

	profiles, err := loadProfiles(*profilesPath)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "=== Profile check: %s (%d areas) ===\n\n", *bulletinPath, len(b.Areas))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var phases []*phase
	for _, prof := range profiles {
		ex := domain.NewExtractor(prof, logger).Extract(b)
		phases = append(phases, checkProfile(prof, b, ex))
		if *show {
			fmt.Fprintf(stdout, "--- %s ---\n%s\n\n", prof.Name, ex.Text)
		}
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(stdout, "\nAll profiles passed.")
		return 0
	}
	fmt.Fprintln(stdout, "\nProfile check FAILED.")
	return 1
}

// loadProfiles returns the built-in profiles sorted by name followed by the
// profiles declared in path, in file order. A file profile replaces the
// built-in of the same name, as it does for PROFILE.
func loadProfiles(path string) ([]domain.Profile, error) {
	var extra []domain.Profile
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		extra, err = domain.LoadProfiles(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	builtins := domain.BuiltinProfiles()
	for _, p := range extra {
		delete(builtins, p.Name)
	}
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)

	profiles := make([]domain.Profile, 0, len(names)+len(extra))
	for _, name := range names {
		profiles = append(profiles, builtins[name])
	}
	return append(profiles, extra...), nil
}

func checkProfile(prof domain.Profile, b *domain.Bulletin, ex domain.Excerpt) *phase {
	p := &phase{name: fmt.Sprintf("%s (%s)", prof.Name, prof.Area)}

	if _, ok := b.FindArea(prof.Area); !ok {
		p.errorf("area %q not in bulletin", prof.Area)
	}
	for _, s := range prof.Sections {
		if s.Source == domain.SourceSynoptic && s.Area != "" {
			if _, ok := b.FindArea(s.Area); !ok {
				p.errorf("synoptic area %q not in bulletin", s.Area)
				continue
			}
		}
		if !slices.Contains(ex.Rendered, s.Source) {
			p.errorf("section %s rendered nothing", s.Source)
		}
	}
	if ex.TimestampErrors > 0 {
		p.errorf("%d unparsable timestamp(s)", ex.TimestampErrors)
	}
	return p
}

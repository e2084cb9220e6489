package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/novacheck/novacheck/internal/config"
)

// Status is the outcome of one check.
type Status int

const (
	// StatusPassed means the check ran and every assertion held.
	StatusPassed Status = iota
	// StatusFailed means the check ran and something did not hold.
	StatusFailed
	// StatusSkipped means the configured cloud does not meet the check's
	// requirements; the check never ran.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "PASSED"
	case StatusFailed:
		return "FAILED"
	case StatusSkipped:
		return "SKIPPED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Check is one named scenario against the compute API under test.
type Check struct {
	// Name identifies the check on the command line and in results.
	Name string

	// Summary is a one-line description for listings.
	Summary string

	// Skip inspects the configuration and returns a reason to skip, or
	// empty to run. A nil Skip always runs.
	Skip func(cfg *config.Config) string

	// Run executes the scenario. Resources it creates belong on the
	// environment's cleanup stack.
	Run func(ctx context.Context, env *Env) error
}

// Result records the outcome of one check.
type Result struct {
	Name     string
	Status   Status
	Reason   string // skip reason, empty otherwise
	Err      error  // failure cause, nil otherwise
	Duration time.Duration
}

// String renders the result as one log-friendly line.
func (r Result) String() string {
	switch r.Status {
	case StatusSkipped:
		return fmt.Sprintf("%-32s %s (%s)", r.Name, r.Status, r.Reason)
	case StatusFailed:
		return fmt.Sprintf("%-32s %s in %s: %v", r.Name, r.Status, r.Duration.Round(time.Millisecond), r.Err)
	default:
		return fmt.Sprintf("%-32s %s in %s", r.Name, r.Status, r.Duration.Round(time.Millisecond))
	}
}

// registry holds every known check in registration order.
var registry []Check

// register adds a check to the registry. Called from suite definitions at
// init time; duplicate names are a programming error.
func register(c Check) {
	for _, existing := range registry {
		if existing.Name == c.Name {
			panic(fmt.Sprintf("checks: duplicate check name %q", c.Name))
		}
	}
	registry = append(registry, c)
}

// All returns every registered check in registration order.
func All() []Check {
	out := make([]Check, len(registry))
	copy(out, registry)
	return out
}

// Names returns the sorted names of every registered check.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, c := range registry {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// Select resolves names to checks, preserving registration order. Unknown
// names fail with a hint listing what exists.
func Select(names []string) ([]Check, error) {
	if len(names) == 0 {
		return All(), nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var out []Check
	for _, c := range registry {
		if wanted[c.Name] {
			out = append(out, c)
			delete(wanted, c.Name)
		}
	}

	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for n := range wanted {
			unknown = append(unknown, n)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown check(s) %s; available: %s",
			strings.Join(unknown, ", "), strings.Join(Names(), ", "))
	}
	return out, nil
}

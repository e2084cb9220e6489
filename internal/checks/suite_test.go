package checks

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/novacheck/novacheck/internal/config"
	"github.com/novacheck/novacheck/internal/proxy"
)

// runNamed runs a single registered check through the runner and returns
// its result.
func runNamed(t *testing.T, env *Env, name string) Result {
	t.Helper()
	selected, err := Select([]string{name})
	if err != nil {
		t.Fatalf("Select(%q) error = %v", name, err)
	}
	results := NewRunner(env).Run(context.Background(), selected)
	if len(results) != 1 {
		t.Fatalf("Run() returned %d results, want 1", len(results))
	}
	return results[0]
}

func TestResizeVolumeBackedConfirm(t *testing.T) {
	fc, api := newFakeCloud(t)
	env := newTestEnv(t, fc, api)

	result := runNamed(t, env, "resize-volume-backed-confirm")
	if result.Status != StatusPassed {
		t.Fatalf("result = %v, want PASSED", result)
	}

	wantActions := []string{"resize", "confirmResize"}
	if diff := cmp.Diff(wantActions, fc.actionLog()); diff != "" {
		t.Errorf("action log mismatch (-want +got):\n%s", diff)
	}
	if n := fc.serverCount(); n != 0 {
		t.Errorf("servers left behind after cleanup: %d", n)
	}
	if n := env.PendingCleanups(); n != 0 {
		t.Errorf("PendingCleanups() = %d after run, want 0", n)
	}
}

func TestSuspendResumeSequence(t *testing.T) {
	fc, api := newFakeCloud(t)
	env := newTestEnv(t, fc, api)

	result := runNamed(t, env, "suspend-resume-sequence")
	if result.Status != StatusPassed {
		t.Fatalf("result = %v, want PASSED", result)
	}

	wantActions := []string{"suspend", "resume", "suspend", "resume"}
	if diff := cmp.Diff(wantActions, fc.actionLog()); diff != "" {
		t.Errorf("action log mismatch (-want +got):\n%s", diff)
	}
	if n := fc.serverCount(); n != 0 {
		t.Errorf("servers left behind after cleanup: %d", n)
	}
}

func TestShelveUnshelve(t *testing.T) {
	fc, api := newFakeCloud(t)
	env := newTestEnv(t, fc, api)
	// The fake parks shelved servers at SHELVED, like a cloud with
	// automatic offloading disabled.
	env.Config.Compute.ShelvedOffloadTime = -1

	result := runNamed(t, env, "shelve-unshelve")
	if result.Status != StatusPassed {
		t.Fatalf("result = %v, want PASSED", result)
	}

	wantActions := []string{"shelve", "shelveOffload", "unshelve"}
	if diff := cmp.Diff(wantActions, fc.actionLog()); diff != "" {
		t.Errorf("action log mismatch (-want +got):\n%s", diff)
	}
	if n := fc.serverCount(); n != 0 {
		t.Errorf("servers left behind after cleanup: %d", n)
	}
}

func TestLiveMigrationInvalidHost(t *testing.T) {
	fc, api := newFakeCloud(t)
	env := newTestEnv(t, fc, api)

	result := runNamed(t, env, "live-migration-invalid-host")
	if result.Status != StatusPassed {
		t.Fatalf("result = %v, want PASSED", result)
	}

	wantActions := []string{"os-migrateLive"}
	if diff := cmp.Diff(wantActions, fc.actionLog()); diff != "" {
		t.Errorf("action log mismatch (-want +got):\n%s", diff)
	}
	if n := fc.serverCount(); n != 0 {
		t.Errorf("servers left behind after cleanup: %d", n)
	}
}

func TestLiveMigrationInvalidHost_Accepted(t *testing.T) {
	fc, api := newFakeCloud(t)
	fc.acceptMigration = true
	env := newTestEnv(t, fc, api)

	result := runNamed(t, env, "live-migration-invalid-host")
	if result.Status != StatusFailed {
		t.Fatalf("result = %v, want FAILED when the cloud accepts the bogus host", result)
	}
	if !strings.Contains(result.Err.Error(), "was accepted") {
		t.Errorf("failure = %v, want mention of the accepted migration", result.Err)
	}
	// The server still gets cleaned up on failure.
	if n := fc.serverCount(); n != 0 {
		t.Errorf("servers left behind after failed check: %d", n)
	}
}

// startConsoleProxy runs the real console proxy on a test listener and
// returns a console URL carrying the session token.
func startConsoleProxy(t *testing.T, token string) string {
	t.Helper()
	p := proxy.New(&proxy.Config{Token: token})
	server := httptest.NewServer(p.Handler())
	t.Cleanup(server.Close)
	return server.URL + "/?token=" + token
}

func TestSerialConsoleNegotiation_DirectURL(t *testing.T) {
	fc, api := newFakeCloud(t)
	env := newTestEnv(t, fc, api)
	env.Config.Console.URL = startConsoleProxy(t, "direct-token")
	env.Config.Console.Timeout = 2

	result := runNamed(t, env, "serial-console-negotiation")
	if result.Status != StatusPassed {
		t.Fatalf("result = %v, want PASSED", result)
	}

	// A configured URL means no server is provisioned and no API action
	// is posted.
	if got := fc.actionLog(); len(got) != 0 {
		t.Errorf("actions posted with a direct console URL: %v", got)
	}
	if n := fc.serverCount(); n != 0 {
		t.Errorf("servers created with a direct console URL: %d", n)
	}
}

func TestSerialConsoleNegotiation_ViaAPI(t *testing.T) {
	fc, api := newFakeCloud(t)
	fc.consoleURL = startConsoleProxy(t, "api-token")
	env := newTestEnv(t, fc, api)
	env.Config.Console.Timeout = 2

	result := runNamed(t, env, "serial-console-negotiation")
	if result.Status != StatusPassed {
		t.Fatalf("result = %v, want PASSED", result)
	}

	wantActions := []string{"os-getSerialConsole"}
	if diff := cmp.Diff(wantActions, fc.actionLog()); diff != "" {
		t.Errorf("action log mismatch (-want +got):\n%s", diff)
	}
	if n := fc.serverCount(); n != 0 {
		t.Errorf("servers left behind after cleanup: %d", n)
	}
}

func TestSuite_AllPassAgainstFakeCloud(t *testing.T) {
	fc, api := newFakeCloud(t)
	fc.consoleURL = startConsoleProxy(t, "suite-token")
	env := newTestEnv(t, fc, api)
	env.Config.Compute.ShelvedOffloadTime = -1
	env.Config.Console.Timeout = 2

	results := NewRunner(env).Run(context.Background(), All())
	for _, r := range results {
		if r.Status != StatusPassed {
			t.Errorf("%s", r)
		}
	}

	summary := Summarize(results)
	want := Summary{Passed: len(All()), Total: len(All())}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if !summary.Success() {
		t.Error("Success() = false, want true")
	}
	if n := fc.serverCount(); n != 0 {
		t.Errorf("servers left behind after suite: %d", n)
	}
}

func TestSkipConditions(t *testing.T) {
	// Mutate a fully-featured configuration one field at a time and watch
	// which checks drop out.
	base := func() *config.Config {
		cfg := config.Default()
		cfg.Compute.FlavorRef = "1"
		cfg.Compute.FlavorRefAlt = "42"
		cfg.Volume.Endpoint = "http://cinder:8776/v3"
		cfg.Features.Resize = true
		cfg.Features.LiveMigration = true
		cfg.Features.SerialConsole = true
		return cfg
	}

	tests := []struct {
		name     string
		check    string
		mutate   func(cfg *config.Config)
		wantSkip string // substring of the reason, empty for no skip
	}{
		{
			name:   "resize enabled runs",
			check:  "resize-volume-backed-confirm",
			mutate: func(cfg *config.Config) {},
		},
		{
			name:     "resize disabled",
			check:    "resize-volume-backed-confirm",
			mutate:   func(cfg *config.Config) { cfg.Features.Resize = false },
			wantSkip: "resize is not available",
		},
		{
			name:     "no alternate flavor",
			check:    "resize-volume-backed-confirm",
			mutate:   func(cfg *config.Config) { cfg.Compute.FlavorRefAlt = "" },
			wantSkip: "no alternate flavor",
		},
		{
			name:  "alternate flavor equals primary",
			check: "resize-volume-backed-confirm",
			mutate: func(cfg *config.Config) {
				cfg.Compute.FlavorRefAlt = cfg.Compute.FlavorRef
			},
			wantSkip: "must differ",
		},
		{
			name:     "no volume endpoint",
			check:    "resize-volume-backed-confirm",
			mutate:   func(cfg *config.Config) { cfg.Volume.Endpoint = "" },
			wantSkip: "no volume endpoint",
		},
		{
			name:     "suspend disabled",
			check:    "suspend-resume-sequence",
			mutate:   func(cfg *config.Config) { cfg.Features.Suspend = false },
			wantSkip: "suspend",
		},
		{
			name:     "shelve disabled",
			check:    "shelve-unshelve",
			mutate:   func(cfg *config.Config) { cfg.Features.Shelve = false },
			wantSkip: "shelve",
		},
		{
			name:     "live migration disabled",
			check:    "live-migration-invalid-host",
			mutate:   func(cfg *config.Config) { cfg.Features.LiveMigration = false },
			wantSkip: "live migration",
		},
		{
			name:     "serial console disabled",
			check:    "serial-console-negotiation",
			mutate:   func(cfg *config.Config) { cfg.Features.SerialConsole = false },
			wantSkip: "serial console",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected, err := Select([]string{tt.check})
			if err != nil {
				t.Fatalf("Select(%q) error = %v", tt.check, err)
			}

			cfg := base()
			tt.mutate(cfg)

			reason := selected[0].Skip(cfg)
			if tt.wantSkip == "" {
				if reason != "" {
					t.Errorf("Skip() = %q, want no skip", reason)
				}
				return
			}
			if !strings.Contains(reason, tt.wantSkip) {
				t.Errorf("Skip() = %q, want substring %q", reason, tt.wantSkip)
			}
		})
	}
}

func TestSkippedCheckDoesNotRun(t *testing.T) {
	fc, api := newFakeCloud(t)
	env := newTestEnv(t, fc, api)
	env.Config.Features.Suspend = false

	result := runNamed(t, env, "suspend-resume-sequence")
	if result.Status != StatusSkipped {
		t.Fatalf("result = %v, want SKIPPED", result)
	}
	if result.Reason == "" {
		t.Error("skipped result has no reason")
	}
	if result.Duration != 0 {
		t.Errorf("skipped result has duration %v", result.Duration)
	}
	if n := fc.serverCount(); n != 0 {
		t.Errorf("skipped check created %d servers", n)
	}
}

func TestRunHonorsContextDeadline(t *testing.T) {
	fc, api := newFakeCloud(t)
	env := newTestEnv(t, fc, api)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()

	selected, err := Select([]string{"suspend-resume-sequence"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	results := NewRunner(env).Run(ctx, selected)
	if results[0].Status != StatusFailed {
		t.Fatalf("result = %v, want FAILED under an expired context", results[0])
	}
	// Cleanups still run on a live context even though the run context
	// expired.
	if n := fc.serverCount(); n != 0 {
		t.Errorf("servers left behind after canceled run: %d", n)
	}
}

//go:build integration

package checks

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/novacheck/novacheck/internal/config"
	"github.com/novacheck/novacheck/internal/logging"
)

// TestSuiteAgainstRealCloud runs every registered check against the cloud
// named by the NOVACHECK_* environment. It provisions and deletes real
// servers, so it only runs under the integration tag:
//
//	NOVACHECK_ENDPOINT=http://controller:8774/v2.1 \
//	NOVACHECK_TOKEN=... \
//	go test -tags integration -timeout 60m ./internal/checks
func TestSuiteAgainstRealCloud(t *testing.T) {
	if os.Getenv(config.EnvEndpoint) == "" && os.Getenv(config.EnvConfigPath) == "" {
		t.Skipf("set %s or %s to run against a real cloud", config.EnvEndpoint, config.EnvConfigPath)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}

	if err := logging.InitializeFromEnv(); err != nil {
		t.Fatalf("initializing logging: %v", err)
	}
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Minute)
	defer cancel()

	env := NewEnv(cfg)
	results := NewRunner(env).Run(ctx, All())

	for _, r := range results {
		t.Log(r.String())
		if r.Status == StatusFailed {
			t.Errorf("%s failed: %v", r.Name, r.Err)
		}
	}

	summary := Summarize(results)
	t.Logf("passed %d, failed %d, skipped %d of %d",
		summary.Passed, summary.Failed, summary.Skipped, summary.Total)
}

// Package checks defines the integration checks the suite runs against a
// compute API.
//
// A check is a named scenario exercising one slice of server lifecycle
// behavior: boot a disposable server, drive it through a transition
// (resize, suspend, shelve, live migration, console negotiation) and verify
// every intermediate status. Checks provision their own resources and
// register cleanups on the environment; the runner releases them after each
// check in reverse order, pass or fail, so a broken run does not leak
// servers into the cloud.
//
// # Skipping
//
// Clouds differ in what they support. Every check declares its requirements
// against the suite configuration (feature switches, an alternate flavor, a
// volume endpoint) and reports a skip reason instead of failing when they
// are not met. Skips are outcomes, not errors: a run with skips still
// succeeds.
//
// # Running
//
//	env := checks.NewEnv(cfg)
//	results := checks.NewRunner(env).Run(ctx, checks.All())
//	for _, r := range results {
//	    fmt.Println(r)
//	}
//
// The same checks back the //go:build integration test suite and the
// `novacheck run` command.
package checks

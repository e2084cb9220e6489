package checks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/novacheck/novacheck/internal/compute"
	"github.com/novacheck/novacheck/internal/config"
	"github.com/novacheck/novacheck/internal/console"
	"github.com/novacheck/novacheck/internal/logging"
	"github.com/novacheck/novacheck/internal/names"
)

func init() {
	register(Check{
		Name:    "resize-volume-backed-confirm",
		Summary: "Resize a volume-backed server to the alternate flavor and confirm",
		Skip:    skipResizeVolumeBacked,
		Run:     runResizeVolumeBacked,
	})
	register(Check{
		Name:    "suspend-resume-sequence",
		Summary: "Suspend and resume a server twice in sequence",
		Skip: func(cfg *config.Config) string {
			if !cfg.Features.Suspend {
				return "suspend is not available"
			}
			return ""
		},
		Run: runSuspendResumeSequence,
	})
	register(Check{
		Name:    "shelve-unshelve",
		Summary: "Shelve a server to offloaded and restore it",
		Skip: func(cfg *config.Config) string {
			if !cfg.Features.Shelve {
				return "shelve is not available"
			}
			return ""
		},
		Run: runShelveUnshelve,
	})
	register(Check{
		Name:    "live-migration-invalid-host",
		Summary: "Live migration to a nonexistent host must be rejected without a status change",
		Skip: func(cfg *config.Config) string {
			if !cfg.Features.LiveMigration {
				return "live migration is not enabled"
			}
			return ""
		},
		Run: runLiveMigrationInvalidHost,
	})
	register(Check{
		Name:    "serial-console-negotiation",
		Summary: "Negotiate a serial console session and exchange frames",
		Skip: func(cfg *config.Config) string {
			if !cfg.Features.SerialConsole {
				return "serial console is not enabled"
			}
			return ""
		},
		Run: runSerialConsoleNegotiation,
	})
}

// provisionActive boots one default server, waits for ACTIVE and registers
// its deletion. The shared opening move of most checks.
func provisionActive(ctx context.Context, env *Env) (*compute.Server, error) {
	servers, err := env.Provisioner.CreateTestServer(ctx, compute.ProvisionRequest{
		WaitUntil: compute.StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("provisioning server: %w", err)
	}
	env.DeferServer(servers[0].ID)
	return &servers[0], nil
}

func skipResizeVolumeBacked(cfg *config.Config) string {
	if !cfg.Features.Resize {
		return "resize is not available"
	}
	if cfg.Compute.FlavorRefAlt == "" {
		return "no alternate flavor configured"
	}
	if cfg.Compute.FlavorRefAlt == cfg.Compute.FlavorRef {
		return "alternate flavor must differ from the primary flavor"
	}
	if cfg.Volume.Endpoint == "" {
		return "no volume endpoint configured"
	}
	return ""
}

// runResizeVolumeBacked boots a server from a fresh bootable volume, resizes
// it to the alternate flavor and confirms. The interesting part is that the
// root disk lives on the volume: the resize moves compute resources only,
// and confirm must settle back to ACTIVE.
func runResizeVolumeBacked(ctx context.Context, env *Env) error {
	servers, err := env.Provisioner.CreateTestServer(ctx, compute.ProvisionRequest{
		VolumeBacked: true,
		WaitUntil:    compute.StatusActive,
	})
	if err != nil {
		return fmt.Errorf("provisioning volume-backed server: %w", err)
	}
	server := servers[0]
	env.DeferServer(server.ID)

	client := env.Provisioner.Compute
	resizeFlavor := env.Config.Compute.FlavorRefAlt
	logging.Debug("resizing server",
		zap.String("server_id", server.ID),
		zap.String("flavor", resizeFlavor))

	if err := client.Resize(ctx, server.ID, resizeFlavor); err != nil {
		return fmt.Errorf("requesting resize: %w", err)
	}
	if err := client.WaitForServerStatus(ctx, server.ID, compute.StatusVerifyResize, 0); err != nil {
		return fmt.Errorf("waiting for VERIFY_RESIZE: %w", err)
	}

	if err := client.ConfirmResize(ctx, server.ID); err != nil {
		return fmt.Errorf("confirming resize: %w", err)
	}
	if err := client.WaitForServerStatus(ctx, server.ID, compute.StatusActive, 0); err != nil {
		return fmt.Errorf("waiting for ACTIVE after confirm: %w", err)
	}

	resized, err := client.GetServer(ctx, server.ID)
	if err != nil {
		return fmt.Errorf("fetching resized server: %w", err)
	}
	if resized.Flavor.ID != "" && resized.Flavor.ID != resizeFlavor {
		return fmt.Errorf("server reports flavor %s after confirm, want %s",
			resized.Flavor.ID, resizeFlavor)
	}
	return nil
}

// runSuspendResumeSequence suspends and resumes the same server twice. The
// second round is the point: it catches state leaking from the first
// suspend that breaks repeated transitions.
func runSuspendResumeSequence(ctx context.Context, env *Env) error {
	server, err := provisionActive(ctx, env)
	if err != nil {
		return err
	}
	client := env.Provisioner.Compute

	for round := 1; round <= 2; round++ {
		logging.Debug("suspending server",
			zap.String("server_id", server.ID),
			zap.Int("round", round))
		if err := client.Suspend(ctx, server.ID); err != nil {
			return fmt.Errorf("round %d: requesting suspend: %w", round, err)
		}
		if err := client.WaitForServerStatus(ctx, server.ID, compute.StatusSuspended, 0); err != nil {
			return fmt.Errorf("round %d: waiting for SUSPENDED: %w", round, err)
		}

		logging.Debug("resuming server",
			zap.String("server_id", server.ID),
			zap.Int("round", round))
		if err := client.Resume(ctx, server.ID); err != nil {
			return fmt.Errorf("round %d: requesting resume: %w", round, err)
		}
		if err := client.WaitForServerStatus(ctx, server.ID, compute.StatusActive, 0); err != nil {
			return fmt.Errorf("round %d: waiting for ACTIVE: %w", round, err)
		}
	}
	return nil
}

// runShelveUnshelve drives a server through shelve, offload and unshelve.
// The offload leg follows the deployment's shelved_offload_time setting;
// with automatic offloading disabled the offload is forced so the check
// always exercises the full round trip.
func runShelveUnshelve(ctx context.Context, env *Env) error {
	server, err := provisionActive(ctx, env)
	if err != nil {
		return err
	}
	client := env.Provisioner.Compute

	if err := env.Provisioner.ShelveAndOffload(ctx, server.ID, true); err != nil {
		return fmt.Errorf("shelving server: %w", err)
	}

	shelved, err := client.GetServer(ctx, server.ID)
	if err != nil {
		return fmt.Errorf("fetching shelved server: %w", err)
	}
	if shelved.Status != compute.StatusShelvedOffloaded {
		return fmt.Errorf("server status %s after shelve, want %s",
			shelved.Status, compute.StatusShelvedOffloaded)
	}

	if err := client.Unshelve(ctx, server.ID); err != nil {
		return fmt.Errorf("requesting unshelve: %w", err)
	}
	if err := client.WaitForServerStatus(ctx, server.ID, compute.StatusActive, 0); err != nil {
		return fmt.Errorf("waiting for ACTIVE after unshelve: %w", err)
	}
	return nil
}

// runLiveMigrationInvalidHost asks for a live migration to a host that does
// not exist. The API must reject the request up front with a BadRequest and
// the server must stay ACTIVE; anything else means the scheduler accepted a
// migration it cannot place.
func runLiveMigrationInvalidHost(ctx context.Context, env *Env) error {
	server, err := provisionActive(ctx, env)
	if err != nil {
		return err
	}
	client := env.Provisioner.Compute

	target := names.Generate("host")
	blockMigration := env.Config.Features.BlockMigrationForLiveMigration

	err = client.LiveMigrate(ctx, server.ID, target, blockMigration)
	if err == nil {
		return fmt.Errorf("live migration to nonexistent host %s was accepted", target)
	}
	if !compute.IsBadRequest(err) {
		return fmt.Errorf("live migration to nonexistent host: got %v, want BadRequest", err)
	}

	if err := client.WaitForServerStatus(ctx, server.ID, compute.StatusActive, 0); err != nil {
		return fmt.Errorf("server status changed after rejected migration: %w", err)
	}
	return nil
}

// runSerialConsoleNegotiation opens a serial console session with the
// reduced WebSocket client and requires console output for a probe. With a
// console URL configured the session targets it directly; otherwise a
// server is provisioned and its console URL negotiated through the API.
func runSerialConsoleNegotiation(ctx context.Context, env *Env) error {
	consoleURL := env.Config.Console.URL
	if consoleURL == "" {
		server, err := provisionActive(ctx, env)
		if err != nil {
			return err
		}
		con, err := env.Provisioner.Compute.SerialConsoleURL(ctx, server.ID)
		if err != nil {
			return fmt.Errorf("negotiating console URL: %w", err)
		}
		consoleURL = con.URL
	}

	client, err := console.Dial(consoleURL,
		console.WithTimeout(env.Config.Console.TimeoutDuration()))
	if err != nil {
		return fmt.Errorf("dialing console: %w", err)
	}
	defer client.Close()

	// A bare carriage return coaxes a prompt out of anything that is
	// alive on the other end.
	if err := client.SendFrame([]byte("\r\n")); err != nil {
		return fmt.Errorf("sending console probe: %w", err)
	}

	output, err := client.ReceiveFrame()
	if err != nil {
		return fmt.Errorf("reading console output: %w", err)
	}
	logging.Debug("console responded", zap.Int("bytes", len(output)))

	if err := client.Close(); err != nil {
		return fmt.Errorf("closing console: %w", err)
	}
	return nil
}

package compute

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/novacheck/novacheck/internal/config"
	"github.com/novacheck/novacheck/internal/logging"
	"github.com/novacheck/novacheck/internal/names"
)

// Provisioner boots and tears down the disposable servers the checks run
// against. It fills in configured defaults, handles volume-backed boots and
// cleans up after failed waits so a broken run does not leak servers.
type Provisioner struct {
	Compute *Client
	Volumes *Client // nil when no volume endpoint is configured
	Config  *config.Config
}

// NewProvisioner builds a Provisioner with clients derived from cfg.
func NewProvisioner(cfg *config.Config) *Provisioner {
	return &Provisioner{
		Compute: NewClientFromConfig(cfg),
		Volumes: NewVolumeClientFromConfig(cfg),
		Config:  cfg,
	}
}

// ProvisionRequest describes one boot. Zero values fall back to configured
// defaults where a default exists.
type ProvisionRequest struct {
	Name           string // generated when empty
	Flavor         string // config flavor_ref when empty
	ImageID        string // config image_ref when empty
	Validatable    bool   // prepare the server for an SSH reachability check
	VolumeBacked   bool   // boot from a fresh bootable volume instead of the image
	WaitUntil      string // status to wait for after boot; empty skips waiting
	MinCount       int
	MaxCount       int
	UserData       string // base64-encoded boot script
	KeyName        string
	SecurityGroups []SecurityGroup
	Networks       []Network
}

// CreateTestServer boots one or more servers per req and returns their
// records. With MinCount or MaxCount above one it boots a batch and resolves
// the members by name prefix. When a requested wait fails, every server of
// the batch is deleted before the error is returned.
func (p *Provisioner) CreateTestServer(ctx context.Context, req ProvisionRequest) ([]Server, error) {
	name := req.Name
	if name == "" {
		name = names.Generate("instance")
	}
	flavor := req.Flavor
	if flavor == "" {
		flavor = p.Config.Compute.FlavorRef
	}
	imageID := req.ImageID
	if imageID == "" {
		imageID = p.Config.Compute.ImageRef
	}

	multipleCreate := max(req.MinCount, req.MaxCount) > 1
	waitUntil := req.WaitUntil

	if req.Validatable {
		if multipleCreate {
			return nil, errors.New("validation does not support booting multiple servers at once")
		}
		if sg := p.Config.Validation.SecurityGroup; sg != "" {
			req.SecurityGroups = append(req.SecurityGroups, SecurityGroup{Name: sg})
		}
		if req.KeyName == "" {
			req.KeyName = p.Config.Validation.KeypairName
		}
		if p.Config.Validation.ConnectMethod == "floating" && waitUntil == "" {
			waitUntil = StatusActive
		}
		if req.UserData == "" {
			req.UserData = debugUserData(p.Config.Validation.ImageSSHUser)
		}
	}

	var bdm []BlockDeviceMapping
	var bootVolumeID string
	if req.VolumeBacked {
		if p.Volumes == nil {
			return nil, errors.New("volume-backed server requested but no volume endpoint configured")
		}
		vol, err := p.Volumes.CreateVolume(ctx, &CreateVolumeRequest{
			Name:     names.Generate("volume"),
			Size:     p.Config.Volume.SizeGB,
			ImageRef: imageID,
		})
		if err != nil {
			return nil, fmt.Errorf("creating bootable volume: %w", err)
		}
		bootVolumeID = vol.ID
		if err := p.Volumes.WaitForVolumeStatus(ctx, vol.ID, VolumeAvailable); err != nil {
			p.deleteVolumeQuietly(ctx, vol.ID)
			return nil, fmt.Errorf("waiting for bootable volume %s: %w", vol.ID, err)
		}
		bdm = []BlockDeviceMapping{{
			UUID:                vol.ID,
			SourceType:          "volume",
			DestinationType:     "volume",
			BootIndex:           0,
			DeleteOnTermination: true,
		}}
		// The image now lives on the volume; the boot request itself
		// carries an empty image reference.
		imageID = ""
	}

	created, err := p.Compute.CreateServer(ctx, &CreateServerRequest{
		Name:                 name,
		ImageRef:             imageID,
		FlavorRef:            flavor,
		KeyName:              req.KeyName,
		UserData:             req.UserData,
		MinCount:             req.MinCount,
		MaxCount:             req.MaxCount,
		SecurityGroups:       req.SecurityGroups,
		Networks:             req.Networks,
		BlockDeviceMappingV2: bdm,
	})
	if err != nil {
		// delete_on_termination only helps once the server owns the
		// volume; a failed boot request leaves it orphaned.
		if bootVolumeID != "" {
			p.deleteVolumeQuietly(ctx, bootVolumeID)
		}
		return nil, err
	}

	var servers []Server
	if multipleCreate {
		// Batch creates report a single record; the members are named
		// after the requested name, so resolve them from the listing.
		all, err := p.Compute.ListServers(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range all {
			if strings.HasPrefix(s.Name, name) {
				servers = append(servers, s)
			}
		}
	} else {
		servers = []Server{*created}
	}

	if waitUntil != "" {
		if err := p.waitForBatch(ctx, servers, waitUntil, req.Validatable); err != nil {
			p.deleteBatchQuietly(ctx, servers)
			return nil, err
		}
	}

	return servers, nil
}

// waitForBatch waits for every server of a batch and, for validatable boots
// over a floating IP, associates the configured address with the first one.
func (p *Provisioner) waitForBatch(ctx context.Context, servers []Server, status string, validatable bool) error {
	for i := range servers {
		if err := p.Compute.WaitForServerStatus(ctx, servers[i].ID, status, 0); err != nil {
			return err
		}
	}
	if validatable && p.Config.Validation.RunValidation &&
		p.Config.Validation.ConnectMethod == "floating" && p.Config.Validation.FloatingIP != "" {
		if err := p.Compute.AddFloatingIP(ctx, servers[0].ID, p.Config.Validation.FloatingIP); err != nil {
			return fmt.Errorf("associating floating IP: %w", err)
		}
	}
	return nil
}

// deleteBatchQuietly deletes every server of a failed batch, logging instead
// of failing on the individual errors so the original failure survives.
func (p *Provisioner) deleteBatchQuietly(ctx context.Context, servers []Server) {
	for i := range servers {
		if err := p.Compute.DeleteServer(ctx, servers[i].ID); err != nil && !IsNotFound(err) {
			logging.Warn("failed to delete server after provisioning error",
				zap.String("server_id", servers[i].ID),
				zap.Error(err))
		}
	}
	for i := range servers {
		if err := p.Compute.WaitForServerTermination(ctx, servers[i].ID); err != nil {
			logging.Warn("server did not terminate after provisioning error",
				zap.String("server_id", servers[i].ID),
				zap.Error(err))
		}
	}
}

// deleteVolumeQuietly deletes a volume that never made it onto a server,
// logging instead of failing so the original error survives.
func (p *Provisioner) deleteVolumeQuietly(ctx context.Context, volumeID string) {
	if err := p.Volumes.DeleteVolume(ctx, volumeID); err != nil && !IsNotFound(err) {
		logging.Warn("failed to delete volume after provisioning error",
			zap.String("volume_id", volumeID),
			zap.Error(err))
	}
}

// DeleteTestServer deletes a server and waits for the record to disappear.
// A server that is already gone is not an error.
func (p *Provisioner) DeleteTestServer(ctx context.Context, serverID string) error {
	if err := p.Compute.DeleteServer(ctx, serverID); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	return p.Compute.WaitForServerTermination(ctx, serverID)
}

// ShelveAndOffload shelves a server and waits for it to settle. With a
// non-negative configured offload delay the deployment offloads on its own
// and the wait runs straight to SHELVED_OFFLOADED with the delay added to
// the budget. With offloading disabled the server stops at SHELVED; force
// then offloads it explicitly.
func (p *Provisioner) ShelveAndOffload(ctx context.Context, serverID string, force bool) error {
	if err := p.Compute.Shelve(ctx, serverID); err != nil {
		return err
	}

	offload := p.Config.Compute.ShelvedOffloadTime
	if offload >= 0 {
		extra := time.Duration(offload) * time.Second
		return p.Compute.WaitForServerStatus(ctx, serverID, StatusShelvedOffloaded, extra)
	}

	if err := p.Compute.WaitForServerStatus(ctx, serverID, StatusShelved, 0); err != nil {
		return err
	}
	if force {
		if err := p.Compute.ShelveOffload(ctx, serverID); err != nil {
			return err
		}
		return p.Compute.WaitForServerStatus(ctx, serverID, StatusShelvedOffloaded, 0)
	}
	return nil
}

// debugUserData builds the default boot script: it prints the image user's
// authorized keys to the console to aid debugging of SSH failures.
func debugUserData(user string) string {
	script := fmt.Sprintf("#!/bin/sh\necho \"Printing %s user authorized keys\"\ncat ~%s/.ssh/authorized_keys || true", user, user)
	return base64.StdEncoding.EncodeToString([]byte(script))
}

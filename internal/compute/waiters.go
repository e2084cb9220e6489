package compute

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/novacheck/novacheck/internal/logging"
)

// WaitForServerStatus polls until the server reports the wanted status with
// no task in flight. extra widens the BuildTimeout budget for transitions
// known to take longer (shelve offload, for example).
//
// A server that falls into ERROR on the way fails the wait immediately with
// a *ServerFaultError. Waiting for StatusDeleted succeeds once the record is
// gone.
func (c *Client) WaitForServerStatus(ctx context.Context, id, status string, extra time.Duration) error {
	deadline := time.Now().Add(c.BuildTimeout + extra)
	lastStatus := ""

	for {
		srv, err := c.GetServer(ctx, id)
		switch {
		case err != nil && status == StatusDeleted && IsNotFound(err):
			return nil
		case err != nil:
			return err
		case srv.Status == status && srv.TaskState == "":
			return nil
		case srv.Status == StatusError && status != StatusError:
			logging.Warn("server entered ERROR while waiting",
				zap.String("server_id", id),
				zap.String("want", status))
			return &ServerFaultError{ServerID: id, Fault: srv.Fault}
		}
		lastStatus = srv.Status

		if time.Now().After(deadline) {
			return &WaitTimeoutError{
				ResourceID: id,
				Want:       status,
				LastStatus: lastStatus,
				Timeout:    c.BuildTimeout + extra,
			}
		}

		select {
		case <-time.After(c.BuildInterval):
		case <-ctx.Done():
			return NewNetworkError("wait aborted", ctx.Err())
		}
	}
}

// WaitForServerTermination polls until the server record disappears. A
// server that lands in ERROR while deleting fails the wait with a
// *ServerFaultError.
func (c *Client) WaitForServerTermination(ctx context.Context, id string) error {
	deadline := time.Now().Add(c.BuildTimeout)
	lastStatus := ""

	for {
		srv, err := c.GetServer(ctx, id)
		switch {
		case err != nil && IsNotFound(err):
			return nil
		case err != nil:
			return err
		case srv.Status == StatusError:
			return &ServerFaultError{ServerID: id, Fault: srv.Fault}
		}
		lastStatus = srv.Status

		if time.Now().After(deadline) {
			return &WaitTimeoutError{
				ResourceID: id,
				Want:       StatusDeleted,
				LastStatus: lastStatus,
				Timeout:    c.BuildTimeout,
			}
		}

		select {
		case <-time.After(c.BuildInterval):
		case <-ctx.Done():
			return NewNetworkError("wait aborted", ctx.Err())
		}
	}
}

// WaitForVolumeStatus polls until the volume reports the wanted status. A
// volume that lands in "error" fails the wait immediately.
func (c *Client) WaitForVolumeStatus(ctx context.Context, id, status string) error {
	deadline := time.Now().Add(c.BuildTimeout)
	lastStatus := ""

	for {
		vol, err := c.GetVolume(ctx, id)
		switch {
		case err != nil:
			return err
		case vol.Status == status:
			return nil
		case vol.Status == VolumeError && status != VolumeError:
			return &VolumeFaultError{VolumeID: id}
		}
		lastStatus = vol.Status

		if time.Now().After(deadline) {
			return &WaitTimeoutError{
				ResourceID: id,
				Want:       status,
				LastStatus: lastStatus,
				Timeout:    c.BuildTimeout,
			}
		}

		select {
		case <-time.After(c.BuildInterval):
		case <-ctx.Done():
			return NewNetworkError("wait aborted", ctx.Err())
		}
	}
}

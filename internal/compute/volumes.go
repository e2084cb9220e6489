package compute

import (
	"context"
	"net/http"
)

type volumeEnvelope struct {
	Volume *Volume `json:"volume"`
}

// CreateVolume creates a volume. With an ImageRef set the volume is built
// bootable from that image; wait for "available" before booting from it.
func (c *Client) CreateVolume(ctx context.Context, req *CreateVolumeRequest) (*Volume, error) {
	var env volumeEnvelope
	body := map[string]*CreateVolumeRequest{"volume": req}
	if err := c.do(ctx, http.MethodPost, "/volumes", body, &env); err != nil {
		return nil, err
	}
	if env.Volume == nil {
		return nil, NewParseError("create response missing volume document", nil)
	}
	return env.Volume, nil
}

// GetVolume fetches the current state of one volume.
func (c *Client) GetVolume(ctx context.Context, id string) (*Volume, error) {
	var env volumeEnvelope
	if err := c.do(ctx, http.MethodGet, "/volumes/"+id, nil, &env); err != nil {
		return nil, err
	}
	if env.Volume == nil {
		return nil, NewParseError("get response missing volume document", nil)
	}
	return env.Volume, nil
}

// DeleteVolume requests deletion of a volume.
func (c *Client) DeleteVolume(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/volumes/"+id, nil, nil)
}

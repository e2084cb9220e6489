package compute

import (
	"context"
	"net/http"
)

type serverEnvelope struct {
	Server *Server `json:"server"`
}

type serversEnvelope struct {
	Servers []Server `json:"servers"`
}

type consoleEnvelope struct {
	Console *Console `json:"console"`
}

// CreateServer boots a server and returns the create response. The returned
// record carries only the fields the create call reports; poll with
// GetServer for the rest.
func (c *Client) CreateServer(ctx context.Context, req *CreateServerRequest) (*Server, error) {
	var env serverEnvelope
	body := map[string]*CreateServerRequest{"server": req}
	if err := c.do(ctx, http.MethodPost, "/servers", body, &env); err != nil {
		return nil, err
	}
	if env.Server == nil {
		return nil, NewParseError("create response missing server document", nil)
	}
	return env.Server, nil
}

// GetServer fetches the current state of one server.
func (c *Client) GetServer(ctx context.Context, id string) (*Server, error) {
	var env serverEnvelope
	if err := c.do(ctx, http.MethodGet, "/servers/"+id, nil, &env); err != nil {
		return nil, err
	}
	if env.Server == nil {
		return nil, NewParseError("get response missing server document", nil)
	}
	return env.Server, nil
}

// ListServers returns the detailed records of all servers visible to the
// token's project.
func (c *Client) ListServers(ctx context.Context) ([]Server, error) {
	var env serversEnvelope
	if err := c.do(ctx, http.MethodGet, "/servers/detail", nil, &env); err != nil {
		return nil, err
	}
	return env.Servers, nil
}

// DeleteServer requests deletion of a server. Deletion is asynchronous; use
// WaitForServerTermination to wait for the record to disappear.
func (c *Client) DeleteServer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/servers/"+id, nil, nil)
}

// serverAction posts one entry of the action API: {"<action>": <params>}.
func (c *Client) serverAction(ctx context.Context, id, action string, params, respBody any) error {
	body := map[string]any{action: params}
	return c.do(ctx, http.MethodPost, "/servers/"+id+"/action", body, respBody)
}

type resizeRequest struct {
	FlavorRef string `json:"flavorRef"`
}

// Resize starts a resize to the given flavor. The server passes through
// RESIZE and settles in VERIFY_RESIZE, where the caller confirms or reverts.
func (c *Client) Resize(ctx context.Context, id, flavorRef string) error {
	return c.serverAction(ctx, id, "resize", resizeRequest{FlavorRef: flavorRef}, nil)
}

// ConfirmResize commits a resize in VERIFY_RESIZE.
func (c *Client) ConfirmResize(ctx context.Context, id string) error {
	return c.serverAction(ctx, id, "confirmResize", nil, nil)
}

// RevertResize rolls a resize in VERIFY_RESIZE back to the original flavor.
func (c *Client) RevertResize(ctx context.Context, id string) error {
	return c.serverAction(ctx, id, "revertResize", nil, nil)
}

// Suspend suspends a running server.
func (c *Client) Suspend(ctx context.Context, id string) error {
	return c.serverAction(ctx, id, "suspend", nil, nil)
}

// Resume resumes a suspended server.
func (c *Client) Resume(ctx context.Context, id string) error {
	return c.serverAction(ctx, id, "resume", nil, nil)
}

// Shelve shelves a server. Depending on the deployment's offload delay the
// server lands in SHELVED or goes straight to SHELVED_OFFLOADED.
func (c *Client) Shelve(ctx context.Context, id string) error {
	return c.serverAction(ctx, id, "shelve", nil, nil)
}

// ShelveOffload forces a shelved server's resources off the hypervisor.
func (c *Client) ShelveOffload(ctx context.Context, id string) error {
	return c.serverAction(ctx, id, "shelveOffload", nil, nil)
}

// Unshelve restores a shelved server to ACTIVE.
func (c *Client) Unshelve(ctx context.Context, id string) error {
	return c.serverAction(ctx, id, "unshelve", nil, nil)
}

type liveMigrateRequest struct {
	Host           *string `json:"host"`
	BlockMigration bool    `json:"block_migration"`
	DiskOverCommit bool    `json:"disk_over_commit"`
}

// LiveMigrate requests a live migration. An empty host lets the scheduler
// pick the destination; a named host pins it and is rejected with a
// BadRequest when no such hypervisor exists.
func (c *Client) LiveMigrate(ctx context.Context, id, host string, blockMigration bool) error {
	req := liveMigrateRequest{BlockMigration: blockMigration}
	if host != "" {
		req.Host = &host
	}
	return c.serverAction(ctx, id, "os-migrateLive", req, nil)
}

type addFloatingIPRequest struct {
	Address string `json:"address"`
}

// AddFloatingIP associates a floating IP address with the server.
func (c *Client) AddFloatingIP(ctx context.Context, id, address string) error {
	return c.serverAction(ctx, id, "addFloatingIp", addFloatingIPRequest{Address: address}, nil)
}

type getConsoleRequest struct {
	Type string `json:"type"`
}

// SerialConsoleURL negotiates a serial console for the server and returns
// its connection details.
func (c *Client) SerialConsoleURL(ctx context.Context, id string) (*Console, error) {
	var env consoleEnvelope
	err := c.serverAction(ctx, id, "os-getSerialConsole", getConsoleRequest{Type: "serial"}, &env)
	if err != nil {
		return nil, err
	}
	if env.Console == nil {
		return nil, NewParseError("console response missing console document", nil)
	}
	return env.Console, nil
}

package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"cubby/internal/services"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path. A failed dial is
// surfaced as an unavailable error so callers can distinguish "daemon not
// running" from call failures.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "ipc", "dial",
			"daemon is not reachable", err)
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping checks daemon liveness.
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.client.Call(serviceName+".Ping", PingRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call(serviceName+".Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Organize starts a run on the daemon.
func (c *Client) Organize(req OrganizeRequest) (*OrganizeResponse, error) {
	var resp OrganizeResponse
	if err := c.client.Call(serviceName+".Organize", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopRun requests a stop of the active run.
func (c *Client) StopRun() (*StopRunResponse, error) {
	var resp StopRunResponse
	if err := c.client.Call(serviceName+".StopRun", StopRunRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Categories returns the registry snapshot.
func (c *Client) Categories() (*CategoriesResponse, error) {
	var resp CategoriesResponse
	if err := c.client.Call(serviceName+".Categories", CategoriesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddCategory appends a category on the daemon.
func (c *Client) AddCategory(name, extensions, folder string) error {
	var resp AddCategoryResponse
	req := AddCategoryRequest{Name: name, Extensions: extensions, Folder: folder}
	return c.client.Call(serviceName+".AddCategory", req, &resp)
}

// SetCategoryEnabled toggles a category on the daemon.
func (c *Client) SetCategoryEnabled(name string, enabled bool) error {
	var resp SetCategoryEnabledResponse
	req := SetCategoryEnabledRequest{Name: name, Enabled: enabled}
	return c.client.Call(serviceName+".SetCategoryEnabled", req, &resp)
}

// History lists recent runs.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call(serviceName+".History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TailLogs fetches buffered log events after the cursor.
func (c *Client) TailLogs(req TailLogsRequest) (*TailLogsResponse, error) {
	var resp TailLogsResponse
	if err := c.client.Call(serviceName+".TailLogs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.client.Call(serviceName+".Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
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

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Intercept.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Intercept.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Correlations lists reconciled correlation candidates.
func (c *Client) Correlations(req CorrelationsRequest) (*CorrelationsResponse, error) {
	var resp CorrelationsResponse
	if err := c.client.Call("Intercept.Correlations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Analyze scores one specific WiFi/Bluetooth device pair.
func (c *Client) Analyze(wifiID, btID string) (*AnalyzeResponse, error) {
	var resp AnalyzeResponse
	req := AnalyzeRequest{WifiID: wifiID, BTID: btID}
	if err := c.client.Call("Intercept.Analyze", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SettingGet fetches one setting by key.
func (c *Client) SettingGet(key string) (*SettingGetResponse, error) {
	var resp SettingGetResponse
	if err := c.client.Call("Intercept.SettingGet", SettingGetRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SettingSet stores one setting.
func (c *Client) SettingSet(key string, value any) (*SettingSetResponse, error) {
	var resp SettingSetResponse
	req := SettingSetRequest{Key: key, Value: value}
	if err := c.client.Call("Intercept.SettingSet", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SettingDelete removes one setting by key.
func (c *Client) SettingDelete(key string) (*SettingDeleteResponse, error) {
	var resp SettingDeleteResponse
	if err := c.client.Call("Intercept.SettingDelete", SettingDeleteRequest{Key: key}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SettingList fetches all settings.
func (c *Client) SettingList() (*SettingListResponse, error) {
	var resp SettingListResponse
	if err := c.client.Call("Intercept.SettingList", SettingListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Intercept.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GPS retrieves the current position fix.
func (c *Client) GPS() (*GPSResponse, error) {
	var resp GPSResponse
	if err := c.client.Call("Intercept.GPS", GPSRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

package walletrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// HTTPClient talks JSON-RPC 2.0 to a wallet daemon over HTTP. Wallet calls
// can legitimately take a long time (the daemon builds and signs the
// transaction synchronously), so the timeout is configured well above normal
// HTTP client defaults.
type HTTPClient struct {
	url      string
	http     *http.Client
	username string
	password string
}

// NewHTTPClient builds a wallet client for the given base URL. If authFile is
// non-empty it must name a file containing "user:password" credentials for
// HTTP basic auth.
func NewHTTPClient(url string, timeout time.Duration, authFile string) (*HTTPClient, error) {
	if url == "" {
		return nil, fmt.Errorf("wallet rpc url is required")
	}
	c := &HTTPClient{
		url:  strings.TrimSuffix(url, "/") + "/json_rpc",
		http: &http.Client{Timeout: timeout},
	}
	if authFile != "" {
		raw, err := os.ReadFile(authFile)
		if err != nil {
			return nil, fmt.Errorf("read wallet auth file: %w", err)
		}
		creds := strings.SplitN(strings.TrimSpace(string(raw)), ":", 2)
		if len(creds) != 2 {
			return nil, fmt.Errorf("wallet auth file must contain user:password")
		}
		c.username, c.password = creds[0], creds[1]
	}
	return c, nil
}

// GetBalance queries the live wallet balance.
func (c *HTTPClient) GetBalance(ctx context.Context) (BalanceInfo, error) {
	var info BalanceInfo
	if err := c.call(ctx, "getbalance", struct{}{}, &info); err != nil {
		return BalanceInfo{}, err
	}
	return info, nil
}

// Transfer submits one transfer call.
func (c *HTTPClient) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	var result TransferResult
	if err := c.call(ctx, "transfer", req, &result); err != nil {
		return TransferResult{}, err
	}
	return result, nil
}

// Store asks the wallet daemon to flush its state to disk.
func (c *HTTPClient) Store(ctx context.Context) error {
	return c.call(ctx, "store", struct{}{}, nil)
}

type rpcRequest struct {
	ID      string `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *HTTPClient) call(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(rpcRequest{ID: "0", JSONRPC: "2.0", Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.username != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s call: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s call: unexpected status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

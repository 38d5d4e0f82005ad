package lookuptool

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fridge/backend/internal/domain"
)

// preferredTools is the fixed preference order for barcode-lookup
// operation names. The tool's interface is externally maintained and not
// contractually stable, so the client probes the advertised capability
// list and uses the first match.
var preferredTools = []string{
	"get_product_by_barcode",
	"getProductByBarcode",
	"search_by_barcode",
	"barcode_lookup",
	"get_product",
	"lookup_product",
	"product_by_barcode",
}

// Client talks to the optional local lookup tool over an MCP stdio
// session. The session is expensive to establish, so a single shared one
// is created lazily on first use and reused for the process lifetime;
// Close tears it down on shutdown. toolName is resolved once per session
// from the tool's advertised capability list.
type Client struct {
	path    string
	command string

	mu       sync.Mutex
	conn     *mcpclient.Client
	toolName string
}

// New creates a lookup tool client. An empty path means the tool is not
// configured; calls then return domain.ErrToolNotConfigured.
func New(path, command string) *Client {
	if command == "" {
		command = "node"
	}
	return &Client{path: path, command: command}
}

// Configured reports whether a tool path was provided at deployment time.
func (c *Client) Configured() bool {
	return c.path != ""
}

// GetProductByBarcode calls the tool's barcode-lookup operation and
// returns the raw product payload for normalization.
func (c *Client) GetProductByBarcode(ctx context.Context, barcode string) (map[string]interface{}, error) {
	if c.path == "" {
		return nil, domain.ErrToolNotConfigured
	}

	// Calls are serialized: the stdio session handles one request at a
	// time, and the guard also prevents concurrent first-requests from
	// racing to spawn duplicate subprocesses.
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connLocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup tool unreachable: %w", err)
	}

	if c.toolName == "" {
		if err := c.resolveToolLocked(ctx, conn); err != nil {
			c.closeConnLocked()
			return nil, err
		}
	}

	result, err := conn.CallTool(ctx, callRequest(c.toolName, barcode))
	if err != nil {
		// A broken pipe or protocol failure poisons the session; drop it
		// so the next request reconnects.
		c.closeConnLocked()
		return nil, fmt.Errorf("lookup tool call failed: %w", err)
	}

	return parseToolResult(result)
}

// Close shuts the tool session down. Safe to call when none was ever
// established.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeConnLocked()
}

// connLocked returns the live session, establishing it on first use.
// Caller must hold c.mu.
func (c *Client) connLocked(ctx context.Context) (*mcpclient.Client, error) {
	if c.conn != nil {
		return c.conn, nil
	}

	conn, err := mcpclient.NewStdioMCPClient(c.command, nil, c.path)
	if err != nil {
		return nil, err
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "fridge-backend",
		Version: "1.0.0",
	}
	if _, err := conn.Initialize(ctx, initRequest); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize failed: %w", err)
	}

	log.Printf("[lookuptool] connected to %s", c.path)
	c.conn = conn
	return conn, nil
}

// resolveToolLocked queries the advertised operation list once per
// session and caches the first name matching the preference order. When
// the list cannot be obtained, every preferred name stays in play and
// the first successful call wins.
func (c *Client) resolveToolLocked(ctx context.Context, conn *mcpclient.Client) error {
	advertised, err := listToolNames(ctx, conn)
	if err != nil {
		log.Printf("[lookuptool] could not list tools: %v", err)
	}

	if name := chooseTool(preferredTools, advertised); name != "" {
		c.toolName = name
		log.Printf("[lookuptool] using tool %q", name)
		return nil
	}

	// No capability list: probe by calling until one name is accepted.
	var lastErr error
	for _, candidate := range preferredTools {
		if _, err := conn.CallTool(ctx, callRequest(candidate, "0")); err == nil {
			c.toolName = candidate
			log.Printf("[lookuptool] probed tool %q", candidate)
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("tool advertised no barcode-lookup operation")
	}
	return fmt.Errorf("no matching lookup operation: %w", lastErr)
}

// chooseTool intersects the static preference list with the advertised
// names (case-insensitively) and returns the first match.
func chooseTool(preferred, advertised []string) string {
	if len(advertised) == 0 {
		return ""
	}
	index := make(map[string]string, len(advertised))
	for _, name := range advertised {
		index[strings.ToLower(name)] = name
	}
	for _, want := range preferred {
		if name, ok := index[strings.ToLower(want)]; ok {
			return name
		}
	}
	return ""
}

// parseToolResult extracts the product payload from a tool-call result.
// Non-JSON text is preserved under a "raw" key rather than dropped.
func parseToolResult(result *mcp.CallToolResult) (map[string]interface{}, error) {
	if result == nil || len(result.Content) == 0 {
		return nil, domain.ErrProductNotFound
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return nil, fmt.Errorf("unexpected tool content type %T", result.Content[0])
	}
	if result.IsError {
		return nil, fmt.Errorf("tool reported an error: %s", text.Text)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		return map[string]interface{}{"raw": text.Text}, nil
	}
	return payload, nil
}

func listToolNames(ctx context.Context, conn *mcpclient.Client) ([]string, error) {
	result, err := conn.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	return names, nil
}

func callRequest(name, barcode string) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = map[string]interface{}{"barcode": barcode}
	return request
}

// closeConnLocked ends the session and forgets the resolved tool name.
// Caller must hold c.mu.
func (c *Client) closeConnLocked() error {
	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	c.toolName = ""
	return conn.Close()
}

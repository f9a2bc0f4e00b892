package mcpgate

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/l402lab/l402-go"
	"github.com/l402lab/l402-go/stats"
	"github.com/l402lab/l402-go/wallet"
)

const (
	defaultInvoiceExpiry  = 5 * time.Minute
	defaultMacaroonExpiry = time.Hour
)

// Options configures a Server.
type Options struct {
	Wallet wallet.Wallet
	Secret []byte
	Clock  l402.Clock

	// DefaultInvoiceExpiry is used for a paid tool that doesn't set its own.
	DefaultInvoiceExpiry time.Duration
	MacaroonExpiry        time.Duration
}

// Server wraps an MCP server, charging sats for tools registered via
// AddPayableTool. Free tools registered via AddTool behave exactly as they
// would on a bare mcp-go server.
type Server struct {
	mcpServer *mcpserver.MCPServer
	wallet    wallet.Wallet
	secret    []byte
	clock     l402.Clock

	invoiceExpiry  time.Duration
	macaroonExpiry time.Duration

	mu     sync.Mutex
	prices map[string]ToolPrice

	stats *stats.Recorder
}

// NewServer creates an MCP server fronted by L402 payment gating.
func NewServer(name, version string, opts Options) *Server {
	if opts.Wallet == nil {
		panic(ErrMissingWallet)
	}
	if len(opts.Secret) == 0 {
		panic(ErrMissingSecret)
	}
	if len(opts.Secret) < 32 {
		slog.Default().Warn("mcpgate: secret shorter than 32 bytes, macaroons are weaker than recommended")
	}
	clk := opts.Clock
	if clk == nil {
		clk = l402.WallClock()
	}
	invoiceExpiry := opts.DefaultInvoiceExpiry
	if invoiceExpiry <= 0 {
		invoiceExpiry = defaultInvoiceExpiry
	}
	macaroonExpiry := opts.MacaroonExpiry
	if macaroonExpiry <= 0 {
		macaroonExpiry = defaultMacaroonExpiry
	}

	return &Server{
		mcpServer:      mcpserver.NewMCPServer(name, version),
		wallet:         opts.Wallet,
		secret:         opts.Secret,
		clock:          clk,
		invoiceExpiry:  invoiceExpiry,
		macaroonExpiry: macaroonExpiry,
		prices:         make(map[string]ToolPrice),
		stats:          stats.New(100, clk),
	}
}

// AddTool registers a free tool — no payment required to call it.
func (s *Server) AddTool(tool mcpproto.Tool, handler mcpserver.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
}

// AddPayableTool registers a tool that requires an L402 payment of
// price.AmountSats before handler runs.
func (s *Server) AddPayableTool(tool mcpproto.Tool, handler mcpserver.ToolHandlerFunc, price ToolPrice) error {
	if price.AmountSats <= 0 {
		return fmt.Errorf("mcpgate: tool %s: AmountSats must be positive", tool.Name)
	}
	if price.InvoiceExpiry <= 0 {
		price.InvoiceExpiry = s.invoiceExpiry
	}

	s.mu.Lock()
	s.prices[tool.Name] = price
	s.mu.Unlock()

	s.mcpServer.AddTool(tool, handler)
	return nil
}

func (s *Server) priceFor(toolName string) (ToolPrice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.prices[toolName]
	return price, ok
}

// Handler returns an HTTP handler serving the MCP server's streamable-HTTP
// transport, wrapped with L402 payment enforcement on tools/call requests
// naming a payable tool.
func (s *Server) Handler() http.Handler {
	inner := mcpserver.NewStreamableHTTPServer(s.mcpServer)
	return newPaymentHandler(inner, s)
}

// Stats returns a snapshot of recorded tool-call payments.
func (s *Server) Stats() stats.Snapshot {
	return s.stats.Snapshot()
}

// MCPServer returns the underlying mcp-go server for advanced use (e.g.
// registering prompts or resources alongside tools).
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

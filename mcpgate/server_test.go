package mcpgate

import (
	"context"
	"testing"

	"github.com/benbjohnson/clock"
	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/l402lab/l402-go/wallet"
)

func echoHandler(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	args := req.GetArguments()
	message, _ := args["message"].(string)
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{mcpproto.NewTextContent("Echo: " + message)},
	}, nil
}

func testServer(t *testing.T) (*Server, *wallet.Mock) {
	t.Helper()
	mockWallet := wallet.NewMock()
	srv := NewServer("test-mcp", "1.0.0", Options{
		Wallet: mockWallet,
		Secret: []byte("mcpgate-test-secret-needs-32-bytes!"),
		Clock:  clock.NewMock(),
	})
	return srv, mockWallet
}

func TestAddToolRegistersFreeTool(t *testing.T) {
	srv, _ := testServer(t)

	echoTool := mcpproto.NewTool("echo",
		mcpproto.WithDescription("Echo back the input message"),
		mcpproto.WithString("message", mcpproto.Required(), mcpproto.Description("Message to echo")),
	)
	srv.AddTool(echoTool, mcpserver.ToolHandlerFunc(echoHandler))

	if _, needsPayment := srv.priceFor("echo"); needsPayment {
		t.Fatal("expected echo to be a free tool")
	}
}

func TestAddPayableToolRejectsNonPositivePrice(t *testing.T) {
	srv, _ := testServer(t)
	searchTool := mcpproto.NewTool("search", mcpproto.WithDescription("Premium search"))

	err := srv.AddPayableTool(searchTool, mcpserver.ToolHandlerFunc(echoHandler), ToolPrice{
		AmountSats:  0,
		Description: "Premium search",
	})
	if err == nil {
		t.Fatal("expected an error for a non-positive price")
	}
}

func TestAddPayableToolRegistersPrice(t *testing.T) {
	srv, _ := testServer(t)
	searchTool := mcpproto.NewTool("search", mcpproto.WithDescription("Premium search"))

	if err := srv.AddPayableTool(searchTool, mcpserver.ToolHandlerFunc(echoHandler), ToolPrice{
		AmountSats:  50,
		Description: "Premium search",
	}); err != nil {
		t.Fatalf("AddPayableTool: %v", err)
	}

	price, needsPayment := srv.priceFor("search")
	if !needsPayment {
		t.Fatal("expected search to require payment")
	}
	if price.AmountSats != 50 {
		t.Errorf("AmountSats = %d, want 50", price.AmountSats)
	}
	if price.InvoiceExpiry != srv.invoiceExpiry {
		t.Errorf("InvoiceExpiry = %v, want default %v", price.InvoiceExpiry, srv.invoiceExpiry)
	}
}

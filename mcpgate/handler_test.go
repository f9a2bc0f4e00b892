package mcpgate

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// stubMCPHandler stands in for mcp-go's real streamable-HTTP transport so
// these tests exercise paymentHandler's own logic without depending on the
// exact wire shape mcp-go negotiates for session setup.
type stubMCPHandler struct {
	called bool
}

func (s *stubMCPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.called = true
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"result": map[string]interface{}{
			"content": []map[string]string{{"type": "text", "text": "Premium search results"}},
		},
	})
}

func toolsCallRequest(toolName string, meta map[string]interface{}) *http.Request {
	params := map[string]interface{}{
		"name":      toolName,
		"arguments": map[string]interface{}{"query": "blockchain"},
	}
	if meta != nil {
		params["_meta"] = meta
	}
	body, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  params,
	})
	return httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
}

func TestMissingCredentialsReturnsChallenge(t *testing.T) {
	srv, _ := testServer(t)
	searchTool := mcpproto.NewTool("search", mcpproto.WithDescription("Premium search"))
	if err := srv.AddPayableTool(searchTool, mcpserver.ToolHandlerFunc(echoHandler), ToolPrice{AmountSats: 25, Description: "Premium search"}); err != nil {
		t.Fatalf("AddPayableTool: %v", err)
	}

	inner := &stubMCPHandler{}
	handler := newPaymentHandler(inner, srv)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, toolsCallRequest("search", nil))

	if inner.called {
		t.Fatal("expected the wrapped MCP handler not to be called without credentials")
	}

	var resp struct {
		Error struct {
			Code int `json:"code"`
			Data struct {
				Challenge struct {
					Invoice  string `json:"invoice"`
					Macaroon string `json:"macaroon"`
				} `json:"challenge"`
			} `json:"data"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error.Code != 402 {
		t.Errorf("error code = %d, want 402", resp.Error.Code)
	}
	if resp.Error.Data.Challenge.Invoice == "" || resp.Error.Data.Challenge.Macaroon == "" {
		t.Error("expected challenge data to carry an invoice and macaroon")
	}
}

func TestFreeToolBypassesGating(t *testing.T) {
	srv, _ := testServer(t)
	echoTool := mcpproto.NewTool("echo", mcpproto.WithDescription("Echo"))
	srv.AddTool(echoTool, mcpserver.ToolHandlerFunc(echoHandler))

	inner := &stubMCPHandler{}
	handler := newPaymentHandler(inner, srv)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, toolsCallRequest("echo", nil))

	if !inner.called {
		t.Fatal("expected the wrapped MCP handler to be called for a free tool")
	}
}

func TestMalformedMacaroonIsRejected(t *testing.T) {
	srv, _ := testServer(t)
	searchTool := mcpproto.NewTool("search", mcpproto.WithDescription("Premium search"))
	if err := srv.AddPayableTool(searchTool, mcpserver.ToolHandlerFunc(echoHandler), ToolPrice{AmountSats: 25, Description: "Premium search"}); err != nil {
		t.Fatalf("AddPayableTool: %v", err)
	}

	inner := &stubMCPHandler{}
	handler := newPaymentHandler(inner, srv)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, toolsCallRequest("search", map[string]interface{}{
		MetaKeyAuthorization: "L402 not-a-macaroon:deadbeef",
	}))

	if inner.called {
		t.Fatal("expected the wrapped MCP handler not to be called for a malformed macaroon")
	}

	var resp struct {
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error.Code != 402 {
		t.Errorf("error code = %d, want 402", resp.Error.Code)
	}
}

func TestPaidCallForwardsAndRecordsSettlement(t *testing.T) {
	srv, mockWallet := testServer(t)
	searchTool := mcpproto.NewTool("search", mcpproto.WithDescription("Premium search"))
	if err := srv.AddPayableTool(searchTool, mcpserver.ToolHandlerFunc(echoHandler), ToolPrice{AmountSats: 25, Description: "Premium search"}); err != nil {
		t.Fatalf("AddPayableTool: %v", err)
	}

	inner := &stubMCPHandler{}
	handler := newPaymentHandler(inner, srv)

	// Trigger the challenge to mint a macaroon/invoice pair.
	challengeRec := httptest.NewRecorder()
	handler.ServeHTTP(challengeRec, toolsCallRequest("search", nil))

	var challengeResp struct {
		Error struct {
			Data struct {
				Challenge struct {
					PaymentHash string `json:"paymentHash"`
					Macaroon    string `json:"macaroon"`
				} `json:"challenge"`
			} `json:"data"`
		} `json:"error"`
	}
	if err := json.Unmarshal(challengeRec.Body.Bytes(), &challengeResp); err != nil {
		t.Fatalf("unmarshal challenge: %v", err)
	}

	preimage, ok := mockWallet.Preimage(challengeResp.Error.Data.Challenge.PaymentHash)
	if !ok {
		t.Fatal("expected mock wallet to know the preimage for the minted invoice")
	}
	mockWallet.Settle(challengeResp.Error.Data.Challenge.PaymentHash)

	authValue := "L402 " + challengeResp.Error.Data.Challenge.Macaroon + ":" + preimage
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, toolsCallRequest("search", map[string]interface{}{
		MetaKeyAuthorization: authValue,
	}))

	if !inner.called {
		t.Fatal("expected the wrapped MCP handler to run once payment is valid")
	}

	var resp struct {
		Result struct {
			Meta map[string]interface{} `json:"_meta"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	paymentResp, ok := resp.Result.Meta[MetaKeyPaymentResponse].(map[string]interface{})
	if !ok {
		t.Fatal("expected result._meta to carry the payment response")
	}
	if paid, _ := paymentResp["paid"].(bool); !paid {
		t.Error("expected payment response to report paid=true")
	}

	snap := srv.Stats()
	if snap.TotalPaid != 1 {
		t.Errorf("TotalPaid = %d, want 1", snap.TotalPaid)
	}
}

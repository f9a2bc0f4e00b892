package mcpgate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	l402 "github.com/l402lab/l402-go"
	"github.com/l402lab/l402-go/wallet"
)

// paymentHandler intercepts tools/call JSON-RPC requests aimed at a payable
// tool, same shape as the HTTP 402 challenge/retry flow but carried inside
// the JSON-RPC envelope the streamable-HTTP MCP transport uses: a missing
// or unparseable Authorization equivalent gets back a JSON-RPC error whose
// data field holds the invoice and macaroon; credentials that parse but fail
// decoding, verification or the preimage check get a 402 JSON-RPC error
// naming the reason, with no challenge attached; valid ones are forwarded
// to the wrapped MCP handler and the settlement recorded.
type paymentHandler struct {
	mcpHandler http.Handler
	server     *Server
}

func newPaymentHandler(mcpHandler http.Handler, server *Server) *paymentHandler {
	return &paymentHandler{mcpHandler: mcpHandler, server: server}
}

func (h *paymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.mcpHandler.ServeHTTP(w, r)
		return
	}

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeRPCError(w, nil, -32700, "Parse error", nil)
		return
	}
	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	var rpcReq struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
		ID      interface{}     `json:"id"`
	}
	if err := json.Unmarshal(bodyBytes, &rpcReq); err != nil {
		h.writeRPCError(w, nil, -32700, "Parse error", nil)
		return
	}

	if rpcReq.Method != "tools/call" {
		h.mcpHandler.ServeHTTP(w, r)
		return
	}

	var toolParams struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
		Meta      map[string]interface{} `json:"_meta"`
	}
	if err := json.Unmarshal(rpcReq.Params, &toolParams); err != nil {
		h.writeRPCError(w, rpcReq.ID, -32602, "Invalid params", nil)
		return
	}

	price, needsPayment := h.server.priceFor(toolParams.Name)
	if !needsPayment {
		h.mcpHandler.ServeHTTP(w, r)
		return
	}

	logger := slog.Default().With("requestID", rpcReq.ID, "tool", toolParams.Name)

	authValue, _ := toolParams.Meta[MetaKeyAuthorization].(string)
	creds := l402.ParseAuthorization(authValue)
	if creds == nil {
		h.sendChallenge(w, r, rpcReq.ID, toolParams.Name, price, logger)
		return
	}

	mac := l402.Decode(creds.MacaroonRaw)
	if mac == nil {
		h.writeRPCError(w, rpcReq.ID, 402, "Payment invalid: malformed macaroon", nil)
		return
	}
	result := l402.Verify(h.server.secret, mac, l402.VerifyContext{
		Now:      h.server.clock.Now(),
		Endpoint: resourceForTool(toolParams.Name),
	})
	if !result.Valid {
		h.writeRPCError(w, rpcReq.ID, 402, fmt.Sprintf("Payment invalid: %s", result.Error), nil)
		return
	}
	if !l402.VerifyPreimage(creds.PreimageHex, result.PaymentHash) {
		h.writeRPCError(w, rpcReq.ID, 402, "Payment invalid: preimage does not match payment hash", nil)
		return
	}

	h.forward(w, r, bodyBytes, rpcReq.ID, toolParams.Name, price, result.PaymentHash, logger)
}

func resourceForTool(name string) string {
	return fmt.Sprintf("mcp://tools/%s", name)
}

func (h *paymentHandler) sendChallenge(w http.ResponseWriter, r *http.Request, id interface{}, toolName string, price ToolPrice, logger *slog.Logger) {
	inv, err := h.server.wallet.CreateInvoice(r.Context(), wallet.CreateInvoiceParams{
		AmountSats:  price.AmountSats,
		Description: price.Description,
		Expiry:      price.InvoiceExpiry,
	})
	if err != nil {
		logger.Error("mcpgate: failed to create invoice", "error", err)
		h.writeRPCError(w, id, -32603, "Failed to create invoice", nil)
		return
	}

	mac := l402.Mint(h.server.secret, l402.MintParams{
		PaymentHash: inv.PaymentHash,
		Endpoint:    resourceForTool(toolName),
	})

	challenge := l402.Challenge{
		PaymentHash: inv.PaymentHash,
		Invoice:     inv.Invoice,
		Macaroon:    mac.Encode(),
		AmountSats:  price.AmountSats,
		Description: price.Description,
	}

	errorData := map[string]interface{}{
		"l402Version": 1,
		"error":       "Payment required to call this tool",
		"challenge":   challenge.Body(),
	}
	h.writeRPCError(w, id, 402, "Payment required", errorData)
}

func (h *paymentHandler) forward(w http.ResponseWriter, r *http.Request, requestBody []byte, requestID interface{}, toolName string, price ToolPrice, paymentHash string, logger *slog.Logger) {
	recorder := &responseRecorder{headerMap: make(http.Header), statusCode: http.StatusOK}
	r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
	h.mcpHandler.ServeHTTP(recorder, r)

	var rpcResp struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result,omitempty"`
		Error   interface{}     `json:"error,omitempty"`
		ID      interface{}     `json:"id"`
	}
	if err := json.Unmarshal(recorder.body.Bytes(), &rpcResp); err != nil {
		h.copyThrough(w, recorder)
		return
	}
	if rpcResp.Error != nil {
		h.copyThrough(w, recorder)
		return
	}

	h.server.stats.Record(resourceForTool(toolName), true, price.AmountSats, "", paymentHash)

	if rpcResp.Result != nil {
		var result map[string]interface{}
		if err := json.Unmarshal(rpcResp.Result, &result); err == nil {
			meta, _ := result["_meta"].(map[string]interface{})
			if meta == nil {
				meta = make(map[string]interface{})
			}
			meta[MetaKeyPaymentResponse] = PaymentResponse{
				Paid:        true,
				AmountSats:  price.AmountSats,
				PaymentHash: paymentHash,
			}
			result["_meta"] = meta
			if modified, err := json.Marshal(result); err == nil {
				rpcResp.Result = modified
			}
		}
	}

	responseBytes, err := json.Marshal(rpcResp)
	if err != nil {
		logger.Error("mcpgate: failed to re-marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	for k, v := range recorder.headerMap {
		w.Header()[k] = v
	}
	w.WriteHeader(recorder.statusCode)
	_, _ = w.Write(responseBytes)
}

func (h *paymentHandler) copyThrough(w http.ResponseWriter, recorder *responseRecorder) {
	for k, v := range recorder.headerMap {
		w.Header()[k] = v
	}
	w.WriteHeader(recorder.statusCode)
	_, _ = w.Write(recorder.body.Bytes())
}

func (h *paymentHandler) writeRPCError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	errorResp := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}
	if data != nil {
		errorResp["error"].(map[string]interface{})["data"] = data
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(errorResp)
}

// responseRecorder captures the wrapped MCP handler's response so it can be
// read, modified (to inject settlement info), and rewritten.
type responseRecorder struct {
	headerMap  http.Header
	body       bytes.Buffer
	statusCode int
}

func (r *responseRecorder) Header() http.Header         { return r.headerMap }
func (r *responseRecorder) Write(b []byte) (int, error) { return r.body.Write(b) }
func (r *responseRecorder) WriteHeader(statusCode int)  { r.statusCode = statusCode }

// Package mcpgate adds L402 payment gating to an MCP (Model Context
// Protocol) tool server. Paid tools are registered with a price; a call
// to a paid tool without L402 credentials gets back a JSON-RPC error
// carrying the 402 challenge (invoice and macaroon) in its data field,
// mirroring the HTTP 402 flow but inside the JSON-RPC envelope the
// streamable-HTTP MCP transport uses. Credentials that are present but
// fail verification get a 402 JSON-RPC error naming the reason instead.
package mcpgate

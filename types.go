package l402

// InvoiceHandle is what a wallet hands back after minting a Lightning
// invoice: the bolt11 string shown to the payer and the payment hash that
// binds it to a macaroon.
type InvoiceHandle struct {
	Invoice     string
	PaymentHash string
}

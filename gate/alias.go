package gate

import (
	"github.com/l402lab/l402-go"
	"github.com/l402lab/l402-go/wallet"
)

// Wallet and Clock are re-exported so callers configuring a Toll don't need
// to import the l402 and wallet packages directly for these two types.
type Wallet = wallet.Wallet
type Clock = l402.Clock

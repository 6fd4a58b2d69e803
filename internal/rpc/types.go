package rpc

import "encoding/json"

// Command names understood by the wallet service. Responses echo the
// name of the command they answer, there is no separate correlation id.
const (
	CmdStartServer       = "start_server"
	CmdGetNextPuzzleHash = "get_next_puzzle_hash"
	CmdGetWalletBalance  = "get_wallet_balance"
	CmdGetTransactions   = "get_transactions"
	CmdSendTransaction   = "send_transaction"
	CmdFarmBlock         = "farm_block"
	CmdGetConnectionInfo = "get_connection_info"
	CmdGetSyncStatus     = "get_sync_status"
	CmdGetHeightInfo     = "get_height_info"
	CmdOpenConnection    = "open_connection"
	CmdCloseConnection   = "close_connection"
	CmdStateChanged      = "state_changed"
)

// Envelope is the wire format in both directions: a command name plus
// an optional payload.
type Envelope struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// State is the lifecycle state of a Conn.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

package wallet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexUint64 decodes a JSON number or a numeric string. The wallet
// service is inconsistent about which one it sends for timestamps and
// ports.
type FlexUint64 uint64

func (f *FlexUint64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		// Timestamps occasionally arrive with a fractional part.
		fv, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("parse numeric value %q: %w", s, err)
		}
		v = uint64(fv)
	}
	*f = FlexUint64(v)
	return nil
}

// Transaction is one wallet history entry. Immutable once received;
// the list is always replaced wholesale, never merged.
type Transaction struct {
	Incoming            bool   `json:"incoming"`
	ToPuzzleHash        string `json:"to_puzzle_hash"`
	CreatedAtTime       int64  `json:"created_at_time"`
	Confirmed           bool   `json:"confirmed"`
	ConfirmedBlockIndex uint32 `json:"confirmed_block_index"`
	Amount              uint64 `json:"amount"`
	FeeAmount           uint64 `json:"fee_amount"`
}

type wireTransaction struct {
	Incoming            bool       `json:"incoming"`
	ToPuzzleHash        string     `json:"to_puzzle_hash"`
	CreatedAtTime       FlexUint64 `json:"created_at_time"`
	Confirmed           bool       `json:"confirmed"`
	ConfirmedBlockIndex uint32     `json:"confirmed_block_index"`
	Amount              uint64     `json:"amount"`
	FeeAmount           uint64     `json:"fee_amount"`
}

// PeerConnection is one entry of the node's peer table. The service is
// authoritative for the set; removal goes through close_connection.
type PeerConnection struct {
	NodeID        string     `json:"node_id"`
	Host          string     `json:"peer_host"`
	Port          FlexUint64 `json:"peer_port"`
	ServerPort    FlexUint64 `json:"peer_server_port"`
	BytesWritten  uint64     `json:"bytes_written"`
	BytesRead     uint64     `json:"bytes_read"`
	Type          int        `json:"type"`
	PeakSubHeight FlexUint64 `json:"peak_sub_height"`
}

// Balance is the confirmed and unconfirmed wallet balance in mojo.
type Balance struct {
	Confirmed   uint64 `json:"confirmed_wallet_balance"`
	Unconfirmed uint64 `json:"unconfirmed_wallet_balance"`
}

// parseTransactions decodes the get_transactions payload. Each element
// of txs is itself a JSON-encoded string holding one transaction
// record, so elements are decoded individually.
func parseTransactions(data json.RawMessage) ([]Transaction, error) {
	var resp struct {
		Txs []json.RawMessage `json:"txs"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode transactions payload: %w", err)
	}

	txs := make([]Transaction, 0, len(resp.Txs))
	for i, el := range resp.Txs {
		record := el
		if len(el) > 0 && el[0] == '"' {
			var inner string
			if err := json.Unmarshal(el, &inner); err != nil {
				return nil, fmt.Errorf("decode transaction %d: %w", i, err)
			}
			record = json.RawMessage(inner)
		}
		var wt wireTransaction
		if err := json.Unmarshal(record, &wt); err != nil {
			return nil, fmt.Errorf("decode transaction %d: %w", i, err)
		}
		txs = append(txs, Transaction{
			Incoming:            wt.Incoming,
			ToPuzzleHash:        wt.ToPuzzleHash,
			CreatedAtTime:       int64(wt.CreatedAtTime),
			Confirmed:           wt.Confirmed,
			ConfirmedBlockIndex: wt.ConfirmedBlockIndex,
			Amount:              wt.Amount,
			FeeAmount:           wt.FeeAmount,
		})
	}
	return txs, nil
}

package wallet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlexUint64AcceptsNumberAndString(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{`8444`, 8444},
		{`"8444"`, 8444},
		{`1612345678.5123`, 1612345678},
		{`"1612345678.5123"`, 1612345678},
		{`null`, 0},
		{`""`, 0},
	}
	for _, tc := range cases {
		var f FlexUint64
		require.NoError(t, json.Unmarshal([]byte(tc.in), &f), "input %s", tc.in)
		require.Equal(t, tc.want, uint64(f), "input %s", tc.in)
	}
}

func TestFlexUint64RejectsGarbage(t *testing.T) {
	var f FlexUint64
	require.Error(t, json.Unmarshal([]byte(`"not a number"`), &f))
}

func TestParseTransactionsDecodesEncodedRecords(t *testing.T) {
	payload := `{"txs":["{\"incoming\":true,\"to_puzzle_hash\":\"0xaa\",\"created_at_time\":1612345678.5,\"confirmed\":true,\"confirmed_block_index\":42,\"amount\":1000,\"fee_amount\":3}"]}`

	txs, err := parseTransactions(json.RawMessage(payload))
	require.NoError(t, err)
	require.Len(t, txs, 1)

	tx := txs[0]
	require.True(t, tx.Incoming)
	require.Equal(t, "0xaa", tx.ToPuzzleHash)
	require.Equal(t, int64(1612345678), tx.CreatedAtTime)
	require.True(t, tx.Confirmed)
	require.Equal(t, uint32(42), tx.ConfirmedBlockIndex)
	require.Equal(t, uint64(1000), tx.Amount)
	require.Equal(t, uint64(3), tx.FeeAmount)
}

func TestParseTransactionsAcceptsPlainObjects(t *testing.T) {
	payload := `{"txs":[{"incoming":false,"to_puzzle_hash":"0xbb","created_at_time":200,"confirmed":false,"confirmed_block_index":0,"amount":50,"fee_amount":1}]}`

	txs, err := parseTransactions(json.RawMessage(payload))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, "0xbb", txs[0].ToPuzzleHash)
	require.False(t, txs[0].Confirmed)
}

func TestParseTransactionsEmptyList(t *testing.T) {
	txs, err := parseTransactions(json.RawMessage(`{"txs":[]}`))
	require.NoError(t, err)
	require.Empty(t, txs)
}

func TestParseTransactionsBadRecord(t *testing.T) {
	_, err := parseTransactions(json.RawMessage(`{"txs":["not json at all"]}`))
	require.Error(t, err)
}

func TestPeerConnectionDecodesMixedPortTypes(t *testing.T) {
	payload := `{"node_id":"n1","peer_host":"203.0.113.5","peer_port":"8444","peer_server_port":8444,"bytes_written":10,"bytes_read":20,"type":1,"peak_sub_height":"1000"}`

	var pc PeerConnection
	require.NoError(t, json.Unmarshal([]byte(payload), &pc))
	require.Equal(t, FlexUint64(8444), pc.Port)
	require.Equal(t, FlexUint64(8444), pc.ServerPort)
	require.Equal(t, FlexUint64(1000), pc.PeakSubHeight)
}

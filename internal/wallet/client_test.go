package wallet

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/Maphikza/chia-wallet-console.git/internal/rpc"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []rpc.Envelope
}

func (r *recordingSender) Send(payload []byte) error {
	var env rpc.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, env)
	return nil
}

func (r *recordingSender) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, env := range r.sent {
		out[i] = env.Command
	}
	return out
}

func (r *recordingSender) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

func newTestClient(t *testing.T, opts ...Option) (*Client, *rpc.Dispatcher, *recordingSender, *Store) {
	t.Helper()
	sender := &recordingSender{}
	dispatcher := rpc.NewDispatcher(sender)
	store := NewStore()
	client := NewClient(dispatcher, store, opts...)
	return client, dispatcher, sender, store
}

func respond(d *rpc.Dispatcher, command, data string) {
	raw := `{"command":"` + command + `"`
	if data != "" {
		raw += `,"data":` + data
	}
	raw += `}`
	d.OnMessage([]byte(raw))
}

func drainNotices(c *Client) []Notice {
	var out []Notice
	for {
		select {
		case n := <-c.Notices():
			out = append(out, n)
		default:
			return out
		}
	}
}

func TestBootstrapIssuesStartServer(t *testing.T) {
	client, _, sender, _ := newTestClient(t)
	client.Bootstrap()
	require.Equal(t, []string{rpc.CmdStartServer}, sender.commands())
}

func TestStartServerResponseFansOut(t *testing.T) {
	_, dispatcher, sender, _ := newTestClient(t)

	respond(dispatcher, rpc.CmdStartServer, "")

	got := sender.commands()
	require.ElementsMatch(t, []string{
		rpc.CmdGetNextPuzzleHash,
		rpc.CmdGetTransactions,
		rpc.CmdGetWalletBalance,
		rpc.CmdGetConnectionInfo,
	}, got)
}

func TestStartServerFanOutOncePerOpen(t *testing.T) {
	_, dispatcher, sender, _ := newTestClient(t)

	respond(dispatcher, rpc.CmdStartServer, "")
	first := len(sender.commands())
	respond(dispatcher, rpc.CmdStartServer, "")

	// One fan-out per connection open event.
	require.Equal(t, first*2, len(sender.commands()))
}

func TestBalanceResponseUpdatesStore(t *testing.T) {
	_, dispatcher, _, store := newTestClient(t)

	respond(dispatcher, rpc.CmdGetWalletBalance,
		`{"confirmed_wallet_balance":500,"unconfirmed_wallet_balance":120}`)

	require.Equal(t, uint64(500), store.Balance().Confirmed)
	require.Equal(t, uint64(120), store.Balance().Unconfirmed)
}

func TestPuzzleHashResponseUpdatesStoreAndRunsHooks(t *testing.T) {
	var hooked string
	_, dispatcher, _, store := newTestClient(t, WithAddressHook(func(ph string) {
		hooked = ph
	}))

	respond(dispatcher, rpc.CmdGetNextPuzzleHash, `{"puzzlehash":"0xdeadbeef"}`)

	require.Equal(t, "0xdeadbeef", store.ReceivePuzzleHash())
	require.Equal(t, "0xdeadbeef", hooked)
}

func TestTransactionListIsReplacedNotMerged(t *testing.T) {
	_, dispatcher, _, store := newTestClient(t)

	respond(dispatcher, rpc.CmdGetTransactions,
		`{"txs":["{\"incoming\":true,\"to_puzzle_hash\":\"0xaa\",\"created_at_time\":100,\"confirmed\":true,\"confirmed_block_index\":7,\"amount\":1000,\"fee_amount\":0}",
		         "{\"incoming\":false,\"to_puzzle_hash\":\"0xbb\",\"created_at_time\":200,\"confirmed\":false,\"confirmed_block_index\":0,\"amount\":50,\"fee_amount\":1}"]}`)
	require.Len(t, store.Transactions(), 2)

	respond(dispatcher, rpc.CmdGetTransactions,
		`{"txs":["{\"incoming\":false,\"to_puzzle_hash\":\"0xcc\",\"created_at_time\":300,\"confirmed\":true,\"confirmed_block_index\":9,\"amount\":75,\"fee_amount\":2}"]}`)

	txs := store.Transactions()
	require.Len(t, txs, 1)
	require.Equal(t, "0xcc", txs[0].ToPuzzleHash)
	require.Equal(t, uint32(9), txs[0].ConfirmedBlockIndex)
}

func TestSendTransactionRejectionLeavesStateUntouched(t *testing.T) {
	client, dispatcher, _, store := newTestClient(t)

	respond(dispatcher, rpc.CmdGetWalletBalance, `{"confirmed_wallet_balance":500}`)
	before := store.Snapshot()

	require.NoError(t, client.SendTransaction("0xabc", "100"))
	respond(dispatcher, rpc.CmdSendTransaction, `{"success":false}`)

	notices := drainNotices(client)
	require.Len(t, notices, 1)
	require.Equal(t, NoticeError, notices[0].Level)
	require.Contains(t, notices[0].Message, "insufficient funds")
	require.Equal(t, before, store.Snapshot())
}

func TestSendTransactionSuccessProducesNoErrorNotice(t *testing.T) {
	client, dispatcher, sender, _ := newTestClient(t)

	require.NoError(t, client.SendTransaction("0xabc", "100"))
	sender.reset()
	respond(dispatcher, rpc.CmdSendTransaction, `{"success":true}`)

	for _, n := range drainNotices(client) {
		require.NotEqual(t, NoticeError, n.Level)
	}
	// A successful spend refreshes what the UI shows.
	require.ElementsMatch(t, []string{rpc.CmdGetWalletBalance, rpc.CmdGetTransactions}, sender.commands())
}

func TestSendTransactionValidatesInput(t *testing.T) {
	client, _, sender, _ := newTestClient(t)

	require.ErrorIs(t, client.SendTransaction("", "100"), ErrEmptyPuzzleHash)
	require.ErrorIs(t, client.SendTransaction("0xabc", ""), ErrEmptyAmount)
	require.Empty(t, sender.commands())
}

func TestFarmBlockEmptyPuzzleHashSendsNothing(t *testing.T) {
	client, _, sender, _ := newTestClient(t)

	require.ErrorIs(t, client.FarmBlock(""), ErrEmptyPuzzleHash)
	require.Empty(t, sender.commands())

	notices := drainNotices(client)
	require.Len(t, notices, 1)
	require.Equal(t, NoticeError, notices[0].Level)
}

func TestFarmBlockSendsPuzzleHash(t *testing.T) {
	client, _, sender, _ := newTestClient(t)

	require.NoError(t, client.FarmBlock("0xabc"))
	require.Equal(t, []string{rpc.CmdFarmBlock}, sender.commands())

	var data map[string]string
	require.NoError(t, json.Unmarshal(sender.sent[0].Data, &data))
	require.Equal(t, "0xabc", data["puzzle_hash"])
}

func TestOpenConnectionResetsFormImmediately(t *testing.T) {
	reset := false
	client, _, sender, _ := newTestClient(t, WithConnectionFormReset(func() {
		reset = true
	}))

	require.NoError(t, client.OpenConnection("203.0.113.5", "8444"))
	require.True(t, reset)
	require.Equal(t, []string{rpc.CmdOpenConnection}, sender.commands())
}

func TestCloseConnectionSendsNodeID(t *testing.T) {
	client, _, sender, _ := newTestClient(t)

	require.NoError(t, client.CloseConnection("node-1"))
	require.Len(t, sender.sent, 1)

	var data map[string]string
	require.NoError(t, json.Unmarshal(sender.sent[0].Data, &data))
	require.Equal(t, "node-1", data["node_id"])
}

func TestConnectionInfoReplacesPeerTable(t *testing.T) {
	_, dispatcher, _, store := newTestClient(t)

	respond(dispatcher, rpc.CmdGetConnectionInfo,
		`{"connections":[{"node_id":"n1","peer_host":"203.0.113.5","peer_port":8444,"peer_server_port":8444,"bytes_written":10,"bytes_read":20,"type":1,"peak_sub_height":1000}]}`)
	require.Len(t, store.Peers(), 1)

	respond(dispatcher, rpc.CmdGetConnectionInfo, `{"connections":[]}`)
	require.Empty(t, store.Peers())
}

func TestStateChangedTriggersRefresh(t *testing.T) {
	_, dispatcher, sender, _ := newTestClient(t)

	respond(dispatcher, rpc.CmdStateChanged, `{"state":"tx_received"}`)
	require.ElementsMatch(t, []string{rpc.CmdGetWalletBalance, rpc.CmdGetTransactions}, sender.commands())
}

func TestSyncStatusAndHeightStored(t *testing.T) {
	_, dispatcher, _, store := newTestClient(t)

	respond(dispatcher, rpc.CmdGetSyncStatus, `{"syncing":true}`)
	respond(dispatcher, rpc.CmdGetHeightInfo, `{"height":4242}`)

	require.True(t, store.Syncing())
	require.Equal(t, uint32(4242), store.Height())
}

func TestUnknownResponseLeavesStateUnchanged(t *testing.T) {
	_, dispatcher, _, store := newTestClient(t)

	respond(dispatcher, rpc.CmdGetWalletBalance, `{"confirmed_wallet_balance":500}`)
	before := store.Snapshot()

	require.NotPanics(t, func() {
		respond(dispatcher, "unknown_command", `{"anything":1}`)
	})
	require.Equal(t, before, store.Snapshot())
}

func TestPersistHookRunsAfterDataResponses(t *testing.T) {
	var persisted []Snapshot
	_, dispatcher, _, _ := newTestClient(t, WithPersistHook(func(s Snapshot) {
		persisted = append(persisted, s)
	}))

	respond(dispatcher, rpc.CmdGetWalletBalance, `{"confirmed_wallet_balance":500}`)
	require.Len(t, persisted, 1)
	require.Equal(t, uint64(500), persisted[0].Balance.Confirmed)

	// A send_transaction result is not a data snapshot.
	respond(dispatcher, rpc.CmdSendTransaction, `{"success":true}`)
	require.Len(t, persisted, 1)
}

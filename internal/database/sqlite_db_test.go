package walletstatedb

import (
	"path/filepath"
	"testing"

	"github.com/Maphikza/chia-wallet-console.git/internal/wallet"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "wallet_state.db")
	require.NoError(t, InitSQLiteDB(dbPath))
}

func TestLoadSnapshotEmptyDatabase(t *testing.T) {
	setupTestDB(t)

	snap, err := LoadSnapshot()
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	setupTestDB(t)

	in := wallet.Snapshot{
		ReceivePuzzleHash: "0xdead",
		Balance:           wallet.Balance{Confirmed: 500, Unconfirmed: 20},
		Height:            1234,
		Syncing:           true,
		Transactions: []wallet.Transaction{
			{Incoming: true, ToPuzzleHash: "0xaa", CreatedAtTime: 100, Confirmed: true, ConfirmedBlockIndex: 7, Amount: 1000, FeeAmount: 1},
			{Incoming: false, ToPuzzleHash: "0xbb", CreatedAtTime: 200, Amount: 50},
		},
	}
	require.NoError(t, SaveSnapshot(in))

	out, err := LoadSnapshot()
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, in.ReceivePuzzleHash, out.ReceivePuzzleHash)
	require.Equal(t, in.Balance, out.Balance)
	require.Equal(t, in.Height, out.Height)
	require.Equal(t, in.Syncing, out.Syncing)
	require.Equal(t, in.Transactions, out.Transactions)
}

func TestSaveSnapshotKeepsSingleRow(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, SaveSnapshot(wallet.Snapshot{ReceivePuzzleHash: "first"}))
	require.NoError(t, SaveSnapshot(wallet.Snapshot{ReceivePuzzleHash: "second"}))

	var count int64
	require.NoError(t, DB.Model(&SQLiteSnapshot{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	out, err := LoadSnapshot()
	require.NoError(t, err)
	require.Equal(t, "second", out.ReceivePuzzleHash)
}

func TestSaveSnapshotReplacesTransactionCache(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, SaveSnapshot(wallet.Snapshot{
		Transactions: []wallet.Transaction{
			{ToPuzzleHash: "0xaa"},
			{ToPuzzleHash: "0xbb"},
		},
	}))
	require.NoError(t, SaveSnapshot(wallet.Snapshot{
		Transactions: []wallet.Transaction{
			{ToPuzzleHash: "0xcc"},
		},
	}))

	out, err := LoadSnapshot()
	require.NoError(t, err)
	require.Len(t, out.Transactions, 1)
	require.Equal(t, "0xcc", out.Transactions[0].ToPuzzleHash)
}

func TestMetadataRoundTrip(t *testing.T) {
	setupTestDB(t)

	val, err := GetMetadata(LastConnectedKey)
	require.NoError(t, err)
	require.Empty(t, val)

	require.NoError(t, SetMetadata(LastConnectedKey, "2026-08-26T10:00:00Z"))
	require.NoError(t, SetMetadata(LastConnectedKey, "2026-08-26T11:00:00Z"))

	val, err = GetMetadata(LastConnectedKey)
	require.NoError(t, err)
	require.Equal(t, "2026-08-26T11:00:00Z", val)
}

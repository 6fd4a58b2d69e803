package walletstatedb

import (
	"github.com/Maphikza/chia-wallet-console.git/internal/wallet"
)

const LastConnectedKey = "last_connected_at"

// Helper wrapper functions that redirect to SQLite implementations

func SaveSnapshot(snap wallet.Snapshot) error {
	return SaveSnapshotToSQLite(snap)
}

func LoadSnapshot() (*wallet.Snapshot, error) {
	return LoadSnapshotFromSQLite()
}

func SetMetadata(key, value string) error {
	return SetMetadataInSQLite(key, value)
}

func GetMetadata(key string) (string, error) {
	return GetMetadataFromSQLite(key)
}

package walletstatedb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Maphikza/chia-wallet-console.git/internal/wallet"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global SQLite database instance
var DB *gorm.DB

// InitSQLiteDB initializes the SQLite database
func InitSQLiteDB(dbPath string) error {
	var err error

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := ensureDir(dir); err != nil {
			return fmt.Errorf("failed to create directory: %v", err)
		}
	}

	// Configure GORM to be less verbose
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	}

	// Open the database
	DB, err = gorm.Open(sqlite.Open(dbPath), config)
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}

	// Auto-migrate schemas
	err = DB.AutoMigrate(
		&SQLiteSnapshot{},
		&SQLiteCachedTransaction{},
		&SQLiteMetadata{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %v", err)
	}

	return nil
}

// ensureDir creates a directory if it doesn't exist
func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// SaveSnapshotToSQLite replaces the cached wallet state with the given
// snapshot.
func SaveSnapshotToSQLite(snap wallet.Snapshot) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		row := SQLiteSnapshot{
			ReceivePuzzleHash:  snap.ReceivePuzzleHash,
			ConfirmedBalance:   snap.Balance.Confirmed,
			UnconfirmedBalance: snap.Balance.Unconfirmed,
			Height:             snap.Height,
			Syncing:            snap.Syncing,
		}

		var existing SQLiteSnapshot
		err := tx.First(&existing).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		} else {
			row.ID = existing.ID
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
		}

		// The transaction cache is replaced wholesale, never merged.
		if err := tx.Unscoped().Where("1 = 1").Delete(&SQLiteCachedTransaction{}).Error; err != nil {
			return err
		}
		for i, t := range snap.Transactions {
			cached := SQLiteCachedTransaction{
				Position:            i,
				Incoming:            t.Incoming,
				ToPuzzleHash:        t.ToPuzzleHash,
				CreatedAtTime:       t.CreatedAtTime,
				Confirmed:           t.Confirmed,
				ConfirmedBlockIndex: t.ConfirmedBlockIndex,
				Amount:              t.Amount,
				FeeAmount:           t.FeeAmount,
			}
			if err := tx.Create(&cached).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadSnapshotFromSQLite retrieves the cached wallet state, or nil
// when nothing has been cached yet.
func LoadSnapshotFromSQLite() (*wallet.Snapshot, error) {
	var row SQLiteSnapshot
	err := DB.First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %v", err)
	}

	var cached []SQLiteCachedTransaction
	if err := DB.Order("position asc").Find(&cached).Error; err != nil {
		return nil, fmt.Errorf("failed to load cached transactions: %v", err)
	}

	snap := &wallet.Snapshot{
		ReceivePuzzleHash: row.ReceivePuzzleHash,
		Balance: wallet.Balance{
			Confirmed:   row.ConfirmedBalance,
			Unconfirmed: row.UnconfirmedBalance,
		},
		Height:  row.Height,
		Syncing: row.Syncing,
	}
	for _, c := range cached {
		snap.Transactions = append(snap.Transactions, wallet.Transaction{
			Incoming:            c.Incoming,
			ToPuzzleHash:        c.ToPuzzleHash,
			CreatedAtTime:       c.CreatedAtTime,
			Confirmed:           c.Confirmed,
			ConfirmedBlockIndex: c.ConfirmedBlockIndex,
			Amount:              c.Amount,
			FeeAmount:           c.FeeAmount,
		})
	}
	return snap, nil
}

// SetMetadataInSQLite stores a metadata key/value pair.
func SetMetadataInSQLite(key, value string) error {
	var existing SQLiteMetadata
	err := DB.Where("key = ?", key).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return DB.Create(&SQLiteMetadata{Key: key, Value: value}).Error
	}
	existing.Value = value
	return DB.Save(&existing).Error
}

// GetMetadataFromSQLite retrieves a metadata value by key.
func GetMetadataFromSQLite(key string) (string, error) {
	var row SQLiteMetadata
	err := DB.Where("key = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return row.Value, nil
}

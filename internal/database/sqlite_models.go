package walletstatedb

import (
	"gorm.io/gorm"
)

// SQLiteSnapshot is the single-row cache of the last known wallet
// state. There is one row per wallet db file.
type SQLiteSnapshot struct {
	gorm.Model
	ReceivePuzzleHash  string
	ConfirmedBalance   uint64
	UnconfirmedBalance uint64
	Height             uint32
	Syncing            bool
}

// SQLiteCachedTransaction mirrors one entry of the last transaction
// list the service reported. The set is replaced wholesale on every
// refresh, matching the wire protocol.
type SQLiteCachedTransaction struct {
	gorm.Model
	Position            int  `gorm:"index"` // order within the reported list, newest first
	Incoming            bool
	ToPuzzleHash        string `gorm:"index"`
	CreatedAtTime       int64
	Confirmed           bool
	ConfirmedBlockIndex uint32
	Amount              uint64
	FeeAmount           uint64
}

// SQLiteMetadata stores miscellaneous metadata about the console
type SQLiteMetadata struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex"`
	Value string
}

package wallet

import "sync"

// Store holds the client-side view of what the wallet service last
// reported. Mutated only by response handlers, read by the UI layer.
// Updates are last-write-wins: a snapshot arriving out of order can
// regress visible state, which is accepted for this protocol.
type Store struct {
	mu                sync.RWMutex
	receivePuzzleHash string
	balance           Balance
	transactions      []Transaction
	peers             []PeerConnection
	syncing           bool
	height            uint32
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// ReceivePuzzleHash returns the last receive address the service
// handed out.
func (s *Store) ReceivePuzzleHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.receivePuzzleHash
}

func (s *Store) SetReceivePuzzleHash(ph string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivePuzzleHash = ph
}

// Balance returns the last reported wallet balance.
func (s *Store) Balance() Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

func (s *Store) SetBalance(b Balance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance = b
}

// Transactions returns the current transaction list, newest first.
func (s *Store) Transactions() []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// ReplaceTransactions swaps in a fresh list. The previous list is
// discarded, not merged.
func (s *Store) ReplaceTransactions(txs []Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = txs
}

// Peers returns the current peer table.
func (s *Store) Peers() []PeerConnection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PeerConnection, len(s.peers))
	copy(out, s.peers)
	return out
}

// ReplacePeers swaps in the peer list from the latest
// get_connection_info response.
func (s *Store) ReplacePeers(peers []PeerConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers = peers
}

// Syncing reports whether the service said it is sync mode.
func (s *Store) Syncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncing
}

func (s *Store) SetSyncing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncing = v
}

// Height returns the last reported chain height.
func (s *Store) Height() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

func (s *Store) SetHeight(h uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.height = h
}

// Snapshot is the persistable view of the Store, cached locally so a
// restarted console shows the previous state until fresh responses
// arrive.
type Snapshot struct {
	ReceivePuzzleHash string
	Balance           Balance
	Height            uint32
	Syncing           bool
	Transactions      []Transaction
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txs := make([]Transaction, len(s.transactions))
	copy(txs, s.transactions)
	return Snapshot{
		ReceivePuzzleHash: s.receivePuzzleHash,
		Balance:           s.balance,
		Height:            s.height,
		Syncing:           s.syncing,
		Transactions:      txs,
	}
}

// Restore loads a previously persisted snapshot into the Store.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receivePuzzleHash = snap.ReceivePuzzleHash
	s.balance = snap.Balance
	s.height = snap.Height
	s.syncing = snap.Syncing
	s.transactions = snap.Transactions
}

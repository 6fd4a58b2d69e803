package wallet

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Maphikza/chia-wallet-console.git/internal/logger"
	"github.com/Maphikza/chia-wallet-console.git/internal/rpc"
)

// ErrEmptyPuzzleHash is returned when a farm or send action is invoked
// without a puzzle hash. The command is never transmitted.
var ErrEmptyPuzzleHash = errors.New("puzzle hash is required")

// ErrEmptyAmount is returned when a send action is invoked without an
// amount.
var ErrEmptyAmount = errors.New("amount is required")

// NoticeLevel classifies a user-visible notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Notice is a dismissable user-visible message. Transport failures
// never become notices, only application-level results do.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Client wires the dispatcher and the state store together: it owns
// the handler table, the bootstrap fan-out and the user-triggered
// commands. Everything it does degrades to "keep retrying" or "show a
// message", nothing is fatal.
type Client struct {
	dispatcher *rpc.Dispatcher
	store      *Store

	notices chan Notice
	updates chan string

	addressHooks []func(puzzleHash string)
	persist      func(Snapshot)
	formReset    func()
}

// Option configures a Client.
type Option func(*Client)

// WithAddressHook registers a side effect run after a new receive
// puzzle hash has been stored (QR rendering, clipboard copy).
func WithAddressHook(fn func(puzzleHash string)) Option {
	return func(c *Client) {
		c.addressHooks = append(c.addressHooks, fn)
	}
}

// WithPersistHook registers a hook that caches the store after each
// data-bearing response.
func WithPersistHook(fn func(Snapshot)) Option {
	return func(c *Client) {
		c.persist = fn
	}
}

// WithConnectionFormReset registers the callback that clears the
// host/port inputs as soon as an open_connection request is submitted.
func WithConnectionFormReset(fn func()) Option {
	return func(c *Client) {
		c.formReset = fn
	}
}

// NewClient creates a Client and installs the static handler table on
// the dispatcher.
func NewClient(dispatcher *rpc.Dispatcher, store *Store, opts ...Option) *Client {
	c := &Client{
		dispatcher: dispatcher,
		store:      store,
		notices:    make(chan Notice, 16),
		updates:    make(chan string, 32),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registerHandlers()
	return c
}

// Notices delivers user-visible messages. The channel is buffered;
// when nobody is reading, notices are dropped rather than blocking
// dispatch.
func (c *Client) Notices() <-chan Notice {
	return c.notices
}

// Updates reports the command name of every handled response. UI
// layers use it to re-render after the store changed.
func (c *Client) Updates() <-chan string {
	return c.updates
}

// Store exposes the state store to the UI layer.
func (c *Client) Store() *Store {
	return c.store
}

// Bootstrap kicks off the session. Called on every connection open,
// including reconnects.
func (c *Client) Bootstrap() {
	c.issue(rpc.CmdStartServer, nil)
}

// RefreshBalance re-queries the wallet balance.
func (c *Client) RefreshBalance() {
	c.issue(rpc.CmdGetWalletBalance, nil)
}

// RefreshTransactions re-queries the transaction list.
func (c *Client) RefreshTransactions() {
	c.issue(rpc.CmdGetTransactions, nil)
}

// RefreshConnections re-queries the peer table.
func (c *Client) RefreshConnections() {
	c.issue(rpc.CmdGetConnectionInfo, nil)
}

// RefreshAddress requests a fresh receive puzzle hash.
func (c *Client) RefreshAddress() {
	c.issue(rpc.CmdGetNextPuzzleHash, nil)
}

// RefreshSyncStatus re-queries sync state and chain height.
func (c *Client) RefreshSyncStatus() {
	c.issue(rpc.CmdGetSyncStatus, nil)
	c.issue(rpc.CmdGetHeightInfo, nil)
}

// SendTransaction submits a spend to the given puzzle hash. The
// amount stays a string on the wire, exactly as entered.
func (c *Client) SendTransaction(puzzleHash, amount string) error {
	if puzzleHash == "" {
		c.notify(NoticeError, "Please enter a receiver puzzle hash")
		return ErrEmptyPuzzleHash
	}
	if amount == "" {
		c.notify(NoticeError, "Please enter an amount to send")
		return ErrEmptyAmount
	}
	return c.issue(rpc.CmdSendTransaction, map[string]string{
		"puzzlehash": puzzleHash,
		"amount":     amount,
	})
}

// FarmBlock asks the node to farm a block to the given puzzle hash.
// An empty puzzle hash never reaches the transport.
func (c *Client) FarmBlock(puzzleHash string) error {
	if puzzleHash == "" {
		c.notify(NoticeError, "Please enter a puzzle hash to farm to")
		return ErrEmptyPuzzleHash
	}
	return c.issue(rpc.CmdFarmBlock, map[string]string{
		"puzzle_hash": puzzleHash,
	})
}

// OpenConnection asks the node to connect to a new peer. The input
// form is reset immediately on submission regardless of the eventual
// outcome.
func (c *Client) OpenConnection(host, port string) error {
	if c.formReset != nil {
		c.formReset()
	}
	return c.issue(rpc.CmdOpenConnection, map[string]string{
		"host": host,
		"port": port,
	})
}

// CloseConnection asks the node to drop the peer with the given id.
// Fire and forget; the authoritative peer list still comes from the
// service.
func (c *Client) CloseConnection(nodeID string) error {
	return c.issue(rpc.CmdCloseConnection, map[string]string{
		"node_id": nodeID,
	})
}

func (c *Client) issue(command string, data interface{}) error {
	if err := c.dispatcher.Issue(command, data); err != nil {
		logger.Errorf("issue %s failed: %v", command, err)
		return err
	}
	return nil
}

func (c *Client) notify(level NoticeLevel, message string) {
	select {
	case c.notices <- Notice{Level: level, Message: message}:
	default:
		logger.Infof("notice dropped: %s", message)
	}
}

// registerHandlers installs the static command -> handler mapping and
// the post-dispatch hooks. Handlers only mutate the store; rendering
// and persistence run afterwards as hooks.
func (c *Client) registerHandlers() {
	c.dispatcher.Handle(rpc.CmdStartServer, c.handleStartServer)
	c.dispatcher.Handle(rpc.CmdGetNextPuzzleHash, c.handleNextPuzzleHash)
	c.dispatcher.Handle(rpc.CmdGetWalletBalance, c.handleWalletBalance)
	c.dispatcher.Handle(rpc.CmdGetTransactions, c.handleTransactions)
	c.dispatcher.Handle(rpc.CmdSendTransaction, c.handleSendTransaction)
	c.dispatcher.Handle(rpc.CmdGetConnectionInfo, c.handleConnectionInfo)
	c.dispatcher.Handle(rpc.CmdGetSyncStatus, c.handleSyncStatus)
	c.dispatcher.Handle(rpc.CmdGetHeightInfo, c.handleHeightInfo)
	c.dispatcher.Handle(rpc.CmdStateChanged, c.handleStateChanged)

	c.dispatcher.AfterDispatch(c.afterDispatch)
}

// handleStartServer is the bootstrap trigger: once the service
// acknowledges the session, fan out the initial data queries. Their
// responses may arrive in any order.
func (c *Client) handleStartServer(json.RawMessage) error {
	c.issue(rpc.CmdGetNextPuzzleHash, nil)
	c.issue(rpc.CmdGetTransactions, nil)
	c.issue(rpc.CmdGetWalletBalance, nil)
	c.issue(rpc.CmdGetConnectionInfo, nil)
	return nil
}

func (c *Client) handleNextPuzzleHash(data json.RawMessage) error {
	var resp struct {
		PuzzleHash string `json:"puzzlehash"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode puzzlehash payload: %w", err)
	}
	c.store.SetReceivePuzzleHash(resp.PuzzleHash)
	return nil
}

func (c *Client) handleWalletBalance(data json.RawMessage) error {
	var b Balance
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("decode balance payload: %w", err)
	}
	c.store.SetBalance(b)
	return nil
}

func (c *Client) handleTransactions(data json.RawMessage) error {
	txs, err := parseTransactions(data)
	if err != nil {
		return err
	}
	c.store.ReplaceTransactions(txs)
	return nil
}

func (c *Client) handleSendTransaction(data json.RawMessage) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode send_transaction payload: %w", err)
	}
	if !resp.Success {
		// The service rejected the spend; typically insufficient funds.
		// No state mutation, just tell the user.
		c.notify(NoticeError, "Transaction rejected: insufficient funds")
		return nil
	}
	c.notify(NoticeInfo, "Transaction submitted")
	c.RefreshBalance()
	c.RefreshTransactions()
	return nil
}

func (c *Client) handleConnectionInfo(data json.RawMessage) error {
	var resp struct {
		Connections []PeerConnection `json:"connections"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode connections payload: %w", err)
	}
	c.store.ReplacePeers(resp.Connections)
	return nil
}

func (c *Client) handleSyncStatus(data json.RawMessage) error {
	var resp struct {
		Syncing bool `json:"syncing"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode sync status payload: %w", err)
	}
	c.store.SetSyncing(resp.Syncing)
	return nil
}

func (c *Client) handleHeightInfo(data json.RawMessage) error {
	var resp struct {
		Height FlexUint64 `json:"height"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode height payload: %w", err)
	}
	c.store.SetHeight(uint32(resp.Height))
	return nil
}

// handleStateChanged reacts to the unsolicited push the service sends
// whenever wallet state moved: re-query what the UI shows.
func (c *Client) handleStateChanged(json.RawMessage) error {
	c.RefreshBalance()
	c.RefreshTransactions()
	return nil
}

func (c *Client) afterDispatch(command string) {
	switch command {
	case rpc.CmdGetNextPuzzleHash:
		ph := c.store.ReceivePuzzleHash()
		for _, hook := range c.addressHooks {
			hook(ph)
		}
	}

	switch command {
	case rpc.CmdGetNextPuzzleHash, rpc.CmdGetWalletBalance,
		rpc.CmdGetTransactions, rpc.CmdGetHeightInfo, rpc.CmdGetSyncStatus:
		if c.persist != nil {
			c.persist(c.store.Snapshot())
		}
	}

	select {
	case c.updates <- command:
	default:
	}
}

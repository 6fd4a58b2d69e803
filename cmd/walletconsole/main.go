package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Maphikza/chia-wallet-console.git/internal/api"
	"github.com/Maphikza/chia-wallet-console.git/internal/config"
	walletstatedb "github.com/Maphikza/chia-wallet-console.git/internal/database"
	"github.com/Maphikza/chia-wallet-console.git/internal/logger"
	"github.com/Maphikza/chia-wallet-console.git/internal/rpc"
	"github.com/Maphikza/chia-wallet-console.git/internal/wallet"
	"github.com/Maphikza/chia-wallet-console.git/internal/wallet/formatter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "wallet-console",
	Short: "Chia Wallet Console",
	Long:  `A console client for a local Chia wallet service with both interactive and CLI modes.`,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(transactionsCmd)
	rootCmd.AddCommand(connectionsCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(farmCmd)
	rootCmd.AddCommand(openConnectionCmd)
	rootCmd.AddCommand(closeConnectionCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := logger.Init(); err != nil {
		log.Printf("Error initializing logger: %v", err)
	}
}

func main() {
	initConfig()
	if len(os.Args) > 1 {
		// CLI mode
		if err := rootCmd.Execute(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	} else {
		// Interactive mode
		interactiveMode()
	}
}

// session bundles the connection manager with the client for one run
// of the console.
type session struct {
	manager *rpc.Manager
	client  *wallet.Client
	store   *wallet.Store
}

func newSession() (*session, error) {
	store := wallet.NewStore()

	if err := walletstatedb.InitSQLiteDB(viper.GetString("wallet_db_path")); err != nil {
		return nil, fmt.Errorf("initializing wallet cache: %w", err)
	}

	// Show the previous state until fresh responses arrive.
	if snap, err := walletstatedb.LoadSnapshot(); err != nil {
		logger.Errorf("loading cached wallet state failed: %v", err)
	} else if snap != nil {
		store.Restore(*snap)
	}

	manager := rpc.NewManager(config.NodeEndpoint(),
		rpc.WithReconnectDelay(time.Duration(viper.GetInt("reconnect_delay_ms"))*time.Millisecond),
		rpc.WithMaxAttempts(viper.GetInt("reconnect_max_attempts")),
	)
	dispatcher := rpc.NewDispatcher(manager)

	client := wallet.NewClient(dispatcher, store,
		wallet.WithAddressHook(formatter.RenderAddressQR),
		wallet.WithAddressHook(formatter.CopyAddressToClipboard),
		wallet.WithPersistHook(func(snap wallet.Snapshot) {
			if err := walletstatedb.SaveSnapshot(snap); err != nil {
				logger.Errorf("caching wallet state failed: %v", err)
			}
		}),
	)

	manager.OnOpen(func() {
		if err := walletstatedb.SetMetadata(walletstatedb.LastConnectedKey, time.Now().Format(time.RFC3339)); err != nil {
			logger.Errorf("recording connect time failed: %v", err)
		}
		client.Bootstrap()
	})
	manager.OnMessage(dispatcher.OnMessage)

	return &session{manager: manager, client: client, store: store}, nil
}

func (s *session) start() {
	s.manager.Start()
}

func (s *session) stop() {
	s.manager.Stop()
	logger.Cleanup()
}

// waitFor blocks until the response for the given command has been
// handled, or the timeout elapses.
func (s *session) waitFor(command string, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		select {
		case got := <-s.client.Updates():
			if got == command {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func (s *session) drainNotices() {
	for {
		select {
		case n := <-s.client.Notices():
			if n.Level == wallet.NoticeError {
				fmt.Println("Error:", n.Message)
			} else {
				fmt.Println(n.Message)
			}
		default:
			return
		}
	}
}

const cliTimeout = 10 * time.Second

func runSession(fn func(s *session) error) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.stop()
	s.start()
	return fn(s)
}

func interactiveMode() {
	// Each interactive session starts with a clean log
	if err := logger.RotateLog(); err != nil {
		log.Printf("Error rotating log file: %v", err)
	}

	s, err := newSession()
	if err != nil {
		log.Fatalf("Error starting session: %v", err)
	}
	defer s.stop()
	s.start()

	if last, err := walletstatedb.GetMetadata(walletstatedb.LastConnectedKey); err == nil && last != "" {
		fmt.Println("Last connected:", last)
	}

	// Notices surface asynchronously: print them as they arrive.
	go func() {
		for n := range s.client.Notices() {
			if n.Level == wallet.NoticeError {
				fmt.Println("\nError:", n.Message)
			} else {
				fmt.Println("\n" + n.Message)
			}
		}
	}()

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\nChia Wallet Console")
		fmt.Println("1. Show balance")
		fmt.Println("2. Show receive address")
		fmt.Println("3. Show transactions")
		fmt.Println("4. Send transaction")
		fmt.Println("5. Farm block")
		fmt.Println("6. Show peer connections")
		fmt.Println("7. Open peer connection")
		fmt.Println("8. Close peer connection")
		fmt.Println("9. Exit")
		fmt.Print("\nEnter your choice (1-9): ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		switch choice {
		case "1":
			s.client.RefreshBalance()
			s.waitFor(rpc.CmdGetWalletBalance, cliTimeout)
			b := s.store.Balance()
			fmt.Println("Confirmed balance:  ", formatter.FormatMojo(b.Confirmed))
			fmt.Println("Unconfirmed balance:", formatter.FormatMojo(b.Unconfirmed))
		case "2":
			s.client.RefreshAddress()
			s.waitFor(rpc.CmdGetNextPuzzleHash, cliTimeout)
			fmt.Println("Receive puzzle hash:", s.store.ReceivePuzzleHash())
		case "3":
			s.client.RefreshTransactions()
			s.waitFor(rpc.CmdGetTransactions, cliTimeout)
			formatter.WriteTransactionTable(os.Stdout, s.store.Transactions())
		case "4":
			fmt.Print("Receiver puzzle hash: ")
			puzzleHash, _ := reader.ReadString('\n')
			fmt.Print("Amount (mojo): ")
			amount, _ := reader.ReadString('\n')
			err := s.client.SendTransaction(strings.TrimSpace(puzzleHash), strings.TrimSpace(amount))
			if err == nil {
				s.waitFor(rpc.CmdSendTransaction, cliTimeout)
			}
		case "5":
			fmt.Print("Puzzle hash to farm to: ")
			puzzleHash, _ := reader.ReadString('\n')
			if err := s.client.FarmBlock(strings.TrimSpace(puzzleHash)); err != nil {
				continue
			}
			fmt.Println("Farm request sent.")
		case "6":
			s.client.RefreshConnections()
			s.waitFor(rpc.CmdGetConnectionInfo, cliTimeout)
			formatter.WritePeerTable(os.Stdout, s.store.Peers())
		case "7":
			fmt.Print("Peer host: ")
			host, _ := reader.ReadString('\n')
			fmt.Print("Peer port: ")
			port, _ := reader.ReadString('\n')
			if err := s.client.OpenConnection(strings.TrimSpace(host), strings.TrimSpace(port)); err != nil {
				log.Printf("Error opening connection: %s", err)
			}
			fmt.Println("Connection request sent.")
		case "8":
			fmt.Print("Node id: ")
			nodeID, _ := reader.ReadString('\n')
			if err := s.client.CloseConnection(strings.TrimSpace(nodeID)); err != nil {
				log.Printf("Error closing connection: %s", err)
			}
		case "9":
			fmt.Println("Exiting program. Goodbye!")
			return
		default:
			fmt.Println("Invalid choice. Please try again.")
		}
	}
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Get the current wallet balance",
	Long:  `Retrieve the last reported balance from the wallet service.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := runSession(func(s *session) error {
			s.waitFor(rpc.CmdGetWalletBalance, cliTimeout)
			return json.NewEncoder(os.Stdout).Encode(s.store.Balance())
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting wallet balance: %v\n", err)
			os.Exit(1)
		}
	},
}

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Get a receive puzzle hash",
	Long:  `Request the next receive puzzle hash from the wallet service.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := runSession(func(s *session) error {
			s.waitFor(rpc.CmdGetNextPuzzleHash, cliTimeout)
			result := struct {
				PuzzleHash string `json:"puzzlehash"`
			}{
				PuzzleHash: s.store.ReceivePuzzleHash(),
			}
			return json.NewEncoder(os.Stdout).Encode(result)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting receive address: %v\n", err)
			os.Exit(1)
		}
	},
}

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Get transaction history",
	Long:  `Retrieve the transaction history the wallet service reports.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := runSession(func(s *session) error {
			s.waitFor(rpc.CmdGetTransactions, cliTimeout)
			formatter.WriteTransactionTable(os.Stdout, s.store.Transactions())
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting transactions: %v\n", err)
			os.Exit(1)
		}
	},
}

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "List peer connections",
	Long:  `List the node's current peer connections.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := runSession(func(s *session) error {
			s.waitFor(rpc.CmdGetConnectionInfo, cliTimeout)
			formatter.WritePeerTable(os.Stdout, s.store.Peers())
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting connections: %v\n", err)
			os.Exit(1)
		}
	},
}

var sendCmd = &cobra.Command{
	Use:   "send [puzzlehash] [amount]",
	Short: "Send a transaction",
	Long:  `Send the given amount (in mojo) to the given receiver puzzle hash.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		err := runSession(func(s *session) error {
			if err := s.client.SendTransaction(args[0], args[1]); err != nil {
				return err
			}
			s.waitFor(rpc.CmdSendTransaction, cliTimeout)
			s.drainNotices()
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error sending transaction: %v\n", err)
			os.Exit(1)
		}
	},
}

var farmCmd = &cobra.Command{
	Use:   "farm [puzzle-hash]",
	Short: "Farm a block",
	Long:  `Ask the node to farm a new block to the given puzzle hash.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := runSession(func(s *session) error {
			return s.client.FarmBlock(args[0])
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error farming block: %v\n", err)
			os.Exit(1)
		}
	},
}

var openConnectionCmd = &cobra.Command{
	Use:   "open-connection [host] [port]",
	Short: "Connect the node to a new peer",
	Long:  `Ask the node to open a connection to the given peer.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		err := runSession(func(s *session) error {
			return s.client.OpenConnection(args[0], args[1])
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening connection: %v\n", err)
			os.Exit(1)
		}
	},
}

var closeConnectionCmd = &cobra.Command{
	Use:   "close-connection [node-id]",
	Short: "Disconnect a peer",
	Long:  `Ask the node to close the connection to the peer with the given id.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		err := runSession(func(s *session) error {
			return s.client.CloseConnection(args[0])
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error closing connection: %v\n", err)
			os.Exit(1)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API for a browser UI",
	Long:  `Keep the wallet connection alive and expose the observed state over HTTP.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := runSession(func(s *session) error {
			a := api.NewAPI(s.client, s.store)
			return a.StartServer()
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error serving API: %v\n", err)
			os.Exit(1)
		}
	},
}

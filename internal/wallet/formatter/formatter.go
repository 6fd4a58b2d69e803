package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Maphikza/chia-wallet-console.git/internal/logger"
	"github.com/Maphikza/chia-wallet-console.git/internal/wallet"
	"github.com/atotto/clipboard"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/viper"
)

// MojoPerXCH is the base unit conversion for display.
const MojoPerXCH = 1_000_000_000_000

// FormatMojo renders a mojo amount as a decimal XCH string.
func FormatMojo(amount uint64) string {
	whole := amount / MojoPerXCH
	frac := amount % MojoPerXCH
	if frac == 0 {
		return fmt.Sprintf("%d XCH", whole)
	}
	s := strings.TrimRight(fmt.Sprintf("%012d", frac), "0")
	return fmt.Sprintf("%d.%s XCH", whole, s)
}

// FormatTimestamp renders an epoch-seconds timestamp for display.
func FormatTimestamp(epoch int64) string {
	if epoch == 0 {
		return "-"
	}
	return time.Unix(epoch, 0).Format("2006-01-02 15:04:05")
}

// FormatConfirmation renders a transaction's confirmation status.
func FormatConfirmation(tx wallet.Transaction) string {
	if tx.Confirmed {
		return fmt.Sprintf("confirmed (block %d)", tx.ConfirmedBlockIndex)
	}
	return "pending"
}

// WriteTransactionTable renders the transaction list, newest first.
func WriteTransactionTable(w io.Writer, txs []wallet.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "DIRECTION\tTO\tAMOUNT\tFEE\tSTATUS\tDATE")
	for _, tx := range txs {
		direction := "outgoing"
		if tx.Incoming {
			direction = "incoming"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			direction,
			shorten(tx.ToPuzzleHash),
			FormatMojo(tx.Amount),
			FormatMojo(tx.FeeAmount),
			FormatConfirmation(tx),
			FormatTimestamp(tx.CreatedAtTime),
		)
	}
	tw.Flush()
}

// WritePeerTable renders the node's peer table.
func WritePeerTable(w io.Writer, peers []wallet.PeerConnection) {
	if len(peers) == 0 {
		fmt.Fprintln(w, "No peer connections.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE ID\tHOST\tPORT\tUP/DOWN\tHEIGHT")
	for _, p := range peers {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d/%d\t%d\n",
			shorten(p.NodeID),
			p.Host,
			uint64(p.Port),
			p.BytesWritten,
			p.BytesRead,
			uint64(p.PeakSubHeight),
		)
	}
	tw.Flush()
}

func shorten(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:8] + ".." + s[len(s)-6:]
}

// RenderAddressQR writes a scannable PNG for the receive address to
// the configured path. Runs as a post-dispatch hook, failures are
// logged and never interrupt dispatch.
func RenderAddressQR(puzzleHash string) {
	if puzzleHash == "" {
		return
	}
	path := viper.GetString("qr_output_path")
	if path == "" {
		return
	}
	if err := qrcode.WriteFile(puzzleHash, qrcode.Medium, 256, path); err != nil {
		logger.Errorf("rendering address QR code failed: %v", err)
		return
	}
	logger.Infof("receive address QR code written to %s", path)
}

// CopyAddressToClipboard puts the receive address on the system
// clipboard when enabled in config.
func CopyAddressToClipboard(puzzleHash string) {
	if puzzleHash == "" || !viper.GetBool("copy_address_to_clipboard") {
		return
	}
	if err := clipboard.WriteAll(puzzleHash); err != nil {
		logger.Errorf("copying address to clipboard failed: %v", err)
		return
	}
	logger.Info("receive address copied to clipboard")
}

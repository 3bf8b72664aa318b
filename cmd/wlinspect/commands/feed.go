package commands

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/wl-go/wlgo/internal/cli/output"
	"github.com/wl-go/wlgo/internal/wire"
)

var feedSocketPath string

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Dial a running \"wlinspect serve\" socket and exercise its protocol",
	Long: `feed connects to a socket bound by "wlinspect serve" and plays a
short scripted sequence: it creates two objects, destroys the first, then
pings both — demonstrating that a ping to the still-live object routes
normally while a ping to the destroyed one is discarded rather than
treated as a protocol error, because the server still remembers it as a
zombie.`,
	RunE: runFeed,
}

func init() {
	feedCmd.Flags().StringVar(&feedSocketPath, "socket", "/tmp/wlinspect.sock", "Unix domain socket to connect to")
}

func runFeed(cmd *cobra.Command, args []string) error {
	conn, err := net.Dial("unix", feedSocketPath)
	if err != nil {
		return fmt.Errorf("dial %s: %w", feedSocketPath, err)
	}
	defer conn.Close()

	printer := output.NewPrinter(os.Stdout, output.FormatTable, true)

	idA, err := requestCreate(conn, "surface-a")
	if err != nil {
		return err
	}
	printer.Println("created", idA)

	idB, err := requestCreate(conn, "surface-b")
	if err != nil {
		return err
	}
	printer.Println("created", idB)

	if err := wire.WriteMessage(conn, wire.Message{ObjectID: idA, Opcode: opDestroy}); err != nil {
		return fmt.Errorf("send destroy: %w", err)
	}
	printer.Println("destroyed", idA)

	if err := wire.WriteMessage(conn, wire.Message{ObjectID: idA, Opcode: opPing}); err != nil {
		return fmt.Errorf("ping destroyed object: %w", err)
	}
	printer.Println("pinged", idA, "(server should silently discard this one)")

	if err := wire.WriteMessage(conn, wire.Message{ObjectID: idB, Opcode: opPing}); err != nil {
		return fmt.Errorf("ping live object: %w", err)
	}
	printer.Println("pinged", idB, "(server should route this one)")

	printer.Success("feed sequence complete; check \"wlinspect serve\" logs for routing outcomes")
	return nil
}

func requestCreate(conn net.Conn, name string) (uint32, error) {
	req := wire.Message{Opcode: opCreate, Payload: wire.PutString(name)}
	if err := wire.WriteMessage(conn, req); err != nil {
		return 0, fmt.Errorf("send create: %w", err)
	}
	reply, err := wire.Decode(conn)
	if err != nil {
		return 0, fmt.Errorf("read create reply: %w", err)
	}
	return reply.ObjectID, nil
}

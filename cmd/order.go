package cmd

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/swiftdrop/hub/core/protocol"
)

var (
	orderHubAddr string
	orderName    string
	orderAddress string
	orderRush    bool
	orderWait    bool
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Submit a single order to a running hub",
	RunE:  runOrder,
}

func init() {
	orderCmd.Flags().StringVar(&orderHubAddr, "hub", "127.0.0.1:7777", "hub address")
	orderCmd.Flags().StringVar(&orderName, "name", "cli", "customer display name")
	orderCmd.Flags().StringVar(&orderAddress, "address", "1 Rue du Test", "delivery address")
	orderCmd.Flags().BoolVar(&orderRush, "rush", false, "rush priority")
	orderCmd.Flags().BoolVar(&orderWait, "wait", false, "wait for the delivered status before exiting")
	rootCmd.AddCommand(orderCmd)
}

func runOrder(cmd *cobra.Command, args []string) error {
	conn, err := net.DialTimeout("tcp", orderHubAddr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("dial hub: %w", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	if _, err := fmt.Fprint(conn, protocol.Hello(protocol.RoleCustomer, orderName).Encode()); err != nil {
		return err
	}
	welcome, err := readRecord(r, conn, 5*time.Second)
	if err != nil {
		return err
	}
	if welcome.Tag != protocol.TagWelcome {
		return fmt.Errorf("handshake rejected: %v", welcome.Fields)
	}

	if _, err := fmt.Fprint(conn, protocol.Order(orderAddress, orderRush).Encode()); err != nil {
		return err
	}
	ack, err := readRecord(r, conn, 5*time.Second)
	if err != nil {
		return err
	}
	if ack.Tag != protocol.TagOrderAck {
		return fmt.Errorf("order rejected: %v", ack.Fields)
	}
	fmt.Printf("order %s accepted: %s\n", ack.Fields[0], ack.Fields[1])

	if !orderWait {
		return nil
	}
	for {
		msg, err := readRecord(r, conn, 5*time.Minute)
		if err != nil {
			return err
		}
		if msg.Tag != protocol.TagStatus {
			continue
		}
		fmt.Printf("job %s: %s (%s)\n", msg.Fields[0], msg.Fields[1], msg.Fields[2])
		if msg.Fields[1] == "DELIVERED" {
			return nil
		}
	}
}

func readRecord(r *bufio.Reader, conn net.Conn, timeout time.Duration) (protocol.Message, error) {
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	line, err := r.ReadString('\n')
	if err != nil {
		return protocol.Message{}, err
	}
	return protocol.Decode(line)
}

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"cellhub/internal/notify"
	"cellhub/pkg/logutils"
)

var (
	watchTCP   string
	notifyAddr string
	notifyID   string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream cache events from the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if watchTCP != "" {
			return runSyncTCP(cmd.OutOrStdout(), watchTCP)
		}
		wsURL, err := websocketURL(baseURL, "/ws")
		if err != nil {
			return err
		}
		return runWebSocket(cmd.OutOrStdout(), wsURL)
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Register for UDP refresh notifications and print them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id := notifyID
		if id == "" {
			host, _ := os.Hostname()
			id = fmt.Sprintf("%s-%d", host, os.Getpid())
		}
		return runNotifyUDP(cmd.OutOrStdout(), notifyAddr, id)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchTCP, "tcp", "", "read the TCP sync feed at this address instead of the websocket")
	notifyCmd.Flags().StringVar(&notifyAddr, "addr", "127.0.0.1:7071", "UDP notify server address")
	notifyCmd.Flags().StringVar(&notifyID, "id", "", "client id (default host-pid)")
	rootCmd.AddCommand(watchCmd, notifyCmd)
}

func runNotifyUDP(out io.Writer, addr, id string) error {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	reg, _ := json.Marshal(notify.RegisterMessage{Type: notify.RegisterMessageType, ClientID: id})
	if _, err := conn.Write(reg); err != nil {
		return err
	}
	logutils.Component("cli").Infof("registered with %s as %s", addr, id)

	buf := make([]byte, 2048)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(buf[:n]))
	}
}

func runSyncTCP(out io.Writer, addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	logutils.Component("cli").Infof("connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		fmt.Fprintln(out, sc.Text())
	}
	return sc.Err()
}

func runWebSocket(out io.Writer, wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	logutils.Component("cli").Infof("connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(msg))
	}
}

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"cellhub/pkg/logutils"
)

const maxBackoff = 30 * time.Second

// sync-client tails the TCP cache event feed, reconnecting with backoff.
func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP sync server address")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	flag.Parse()

	log := logutils.Component("sync-client")
	backoff := time.Second
	for {
		n, err := tail(log, os.Stdout, *addr, *pretty)
		if err != nil {
			log.WithError(err).Warn("disconnected")
		}
		if n > 0 {
			backoff = time.Second
		}
		time.Sleep(backoff)
		backoff = min(2*backoff, maxBackoff)
	}
}

// tail copies events from addr to out until the connection ends and reports
// how many lines it saw.
func tail(log *logrus.Entry, out io.Writer, addr string, pretty bool) (int, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	log.Infof("connected to %s", addr)

	n := 0
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		n++
		fmt.Fprintln(out, formatEvent(sc.Bytes(), pretty))
	}
	if err := sc.Err(); err != nil {
		return n, err
	}
	return n, io.EOF
}

// formatEvent indents JSON lines when pretty is set; anything else is
// printed as received.
func formatEvent(line []byte, pretty bool) string {
	if !pretty || !json.Valid(line) {
		return string(line)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, line, "", "  "); err != nil {
		return string(line)
	}
	return buf.String()
}

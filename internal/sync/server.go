package sync

import (
	"bufio"
	"context"
	"errors"
	"net"

	"cellhub/pkg/logutils"
)

// Server accepts TCP subscribers; each receives one JSON event per line.
type Server struct {
	Addr string
	Hub  *Hub
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

// Run listens on Addr until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	log := logutils.Component("sync")
	log.Infof("tcp sync listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.WithError(err).Warn("accept")
			continue
		}

		s.Hub.Add(conn)
		s.Hub.Welcome(conn)
		log.WithField("remote", conn.RemoteAddr().String()).Info("client connected")

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				log.WithField("remote", c.RemoteAddr().String()).Info("client disconnected")
			}()

			// subscribers have nothing to say; drain until they hang up
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

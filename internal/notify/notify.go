// Package notify pushes small "portal data changed" datagrams to UDP
// subscribers. It carries no payload beyond the key and generation; clients
// refetch over HTTP.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"cellhub/internal/querycache"
	"cellhub/pkg/logutils"
)

const (
	RegisterMessageType   = "register"
	UnregisterMessageType = "unregister"
	RefreshedMessageType  = "refreshed"
	ResetMessageType      = "reset"
)

const queueSize = 32

type RegisterMessage struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
}

// ChangeMessage tells a subscriber that key resolved to a new generation
// ("refreshed") or was dropped from the cache ("reset").
type ChangeMessage struct {
	Type       string `json:"type"`
	Key        string `json:"key"`
	Generation uint64 `json:"generation,omitempty"`
}

type Client struct {
	ID   string
	Addr *net.UDPAddr
}

type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

func (r *Registry) Register(id string, addr *net.UDPAddr) {
	if id == "" || addr == nil {
		return
	}
	r.mu.Lock()
	r.clients[id] = Client{ID: id, Addr: addr}
	r.mu.Unlock()
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.clients, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

type Server struct {
	addr     string
	registry *Registry
	log      *logrus.Entry

	conn  *net.UDPConn
	queue chan ChangeMessage
}

func NewServer(addr string, registry *Registry) *Server {
	return &Server{
		addr:     addr,
		registry: registry,
		log:      logutils.Component("notify"),
		queue:    make(chan ChangeMessage, queueSize),
	}
}

// Listen binds the UDP socket. It must be called before Serve.
func (s *Server) Listen() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

// Addr is the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Serve reads registrations and sends queued changes until ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	if s.conn == nil {
		return errors.New("notify: Serve before Listen")
	}
	s.log.Infof("UDP notify server listening on %s", s.conn.LocalAddr())

	go func() {
		<-ctx.Done()
		_ = s.conn.Close()
	}()
	go s.drain(ctx)

	buffer := make([]byte, 2048)
	for {
		n, addr, err := s.conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		msg, err := parseRegisterMessage(buffer[:n])
		if err != nil {
			s.log.WithField("remote", addr.String()).WithError(err).Debug("invalid UDP message")
			continue
		}
		switch msg.Type {
		case RegisterMessageType:
			s.registry.Register(msg.ClientID, addr)
			s.log.WithFields(logutils.Fields{"client": msg.ClientID, "remote": addr.String()}).Info("registered UDP client")
		case UnregisterMessageType:
			s.registry.Remove(msg.ClientID)
		}
	}
}

// Run is Listen followed by Serve.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Notify queues msg for every registered client. A full queue drops msg.
func (s *Server) Notify(msg ChangeMessage) {
	select {
	case s.queue <- msg:
	default:
		s.log.WithField("key", msg.Key).Warn("notify queue full, dropping change")
	}
}

// Attach queues a change for every resolve and invalidation of cache.
func (s *Server) Attach(cache *querycache.Cache) (detach func()) {
	return cache.Subscribe(func(ev querycache.Event) {
		switch ev.Type {
		case querycache.EventResolved:
			s.Notify(ChangeMessage{Type: RefreshedMessageType, Key: ev.Key, Generation: ev.Generation})
		case querycache.EventInvalidated:
			s.Notify(ChangeMessage{Type: ResetMessageType, Key: ev.Key})
		}
	})
}

func (s *Server) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.queue:
			s.broadcast(msg)
		}
	}
}

func (s *Server) broadcast(msg ChangeMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.WithError(err).Error("marshal change")
		return
	}
	for _, client := range s.registry.Snapshot() {
		s.sendWithRetry(client, payload)
	}
}

func (s *Server) sendWithRetry(client Client, payload []byte) {
	if err := s.sendOnce(client, payload); err == nil {
		return
	}
	if err := s.sendOnce(client, payload); err != nil {
		s.log.WithFields(logutils.Fields{"client": client.ID, "remote": client.Addr.String()}).WithError(err).Warn("dropping unreachable client")
		s.registry.Remove(client.ID)
	}
}

func (s *Server) sendOnce(client Client, payload []byte) error {
	if client.Addr == nil {
		return errors.New("missing client address")
	}
	_, err := s.conn.WriteToUDP(payload, client.Addr)
	return err
}

func parseRegisterMessage(data []byte) (RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.ClientID == "" || msg.Type == "" {
		return msg, errors.New("missing required fields")
	}
	return msg, nil
}

package fshttp

import (
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/davsync/davsync/fs"
)

// SessionTracker is a tls.ClientSessionCache which remembers which
// servers handed out a resumable session, so callers can tell whether
// a connection to a host could have been resumed.
//
// It is safe for concurrent use.
type SessionTracker struct {
	cache tls.ClientSessionCache
	mu    sync.Mutex
	puts  map[string]int
}

// NewSessionTracker returns a SessionTracker backed by an LRU cache of
// capacity sessions.  A capacity < 1 uses the crypto/tls default.
func NewSessionTracker(capacity int) *SessionTracker {
	return &SessionTracker{
		cache: tls.NewLRUClientSessionCache(capacity),
		puts:  make(map[string]int),
	}
}

// Get implements tls.ClientSessionCache
func (s *SessionTracker) Get(sessionKey string) (*tls.ClientSessionState, bool) {
	return s.cache.Get(sessionKey)
}

// Put implements tls.ClientSessionCache
func (s *SessionTracker) Put(sessionKey string, cs *tls.ClientSessionState) {
	s.mu.Lock()
	if cs == nil {
		delete(s.puts, sessionKey)
	} else {
		s.puts[sessionKey]++
		if s.puts[sessionKey] == 1 {
			fs.Debugf(nil, "Stored first TLS session ticket for %q", sessionKey)
		}
	}
	s.mu.Unlock()
	s.cache.Put(sessionKey, cs)
}

// HasTicket returns true if a session for host is in the cache.  host
// may carry a port which is ignored.
func (s *SessionTracker) HasTicket(host string) bool {
	_, ok := s.cache.Get(sessionCacheKey(host))
	return ok
}

// sessionCacheKey returns the key crypto/tls stores the session of
// host under when it is dialled by http.Transport: the host without
// its port, with IPv6 literals kept in brackets.
func sessionCacheKey(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return host
}

// Customize installs the tracker as the session cache of t.  It is
// meant to be passed to NewTransportCustom.
func (s *SessionTracker) Customize(t *http.Transport) {
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{}
	}
	t.TLSClientConfig.ClientSessionCache = s
}

// check interface
var _ tls.ClientSessionCache = (*SessionTracker)(nil)

package netclient

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"
)

// connPool is a per-address free list of live connections, guarded by a
// mutex and a condition variable exactly the way a superq collection
// guards its own push/pop — this package cannot import the root superq
// package (it would close an import cycle, since the root package imports
// netclient to forward reads to remote nodes), so the pooling discipline
// is reproduced here directly rather than reused as a literal Collection.
type connPool struct {
	mu   sync.Mutex
	full *sync.Cond

	addr    string
	tlsConf *tls.Config
	free    []net.Conn
	maxOpen int
	opened  int
}

func newPool(addr string, tlsConf *tls.Config, maxOpen int) *connPool {
	p := &connPool{addr: addr, tlsConf: tlsConf, maxOpen: maxOpen}
	p.full = sync.NewCond(&p.mu)
	return p
}

func (p *connPool) dial() (net.Conn, error) {
	if p.tlsConf != nil {
		return tls.Dial("tcp", p.addr, p.tlsConf)
	}
	return net.DialTimeout("tcp", p.addr, 5*time.Second)
}

// checkout returns a reusable connection, dialing a fresh one if the free
// list is empty and the pool has spare capacity, or waiting for one to be
// returned otherwise.
func (p *connPool) checkout() (net.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if n := len(p.free); n > 0 {
			c := p.free[n-1]
			p.free = p.free[:n-1]
			return c, nil
		}
		if p.maxOpen <= 0 || p.opened < p.maxOpen {
			conn, err := p.dial()
			if err != nil {
				return nil, fmt.Errorf("netclient: dial %s: %w", p.addr, err)
			}
			p.opened++
			return conn, nil
		}
		p.full.Wait()
	}
}

// checkin returns a connection to the free list, or closes it if broken is
// true.
func (p *connPool) checkin(c net.Conn, broken bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if broken {
		c.Close()
		p.opened--
		p.full.Signal()
		return
	}
	p.free = append(p.free, c)
	p.full.Signal()
}

// Pool holds one connPool per remote address, created lazily.
type Pool struct {
	mu    sync.Mutex
	byKey map[string]*connPool

	maxOpenPerAddr int
}

// NewPool builds an empty socket pool. maxOpenPerAddr of 0 means unbounded.
func NewPool(maxOpenPerAddr int) *Pool {
	return &Pool{byKey: make(map[string]*connPool), maxOpenPerAddr: maxOpenPerAddr}
}

func (p *Pool) poolFor(addr string, tlsConf *tls.Config) *connPool {
	key := addr
	if tlsConf != nil {
		key = "ssl:" + addr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	cp, ok := p.byKey[key]
	if !ok {
		cp = newPool(addr, tlsConf, p.maxOpenPerAddr)
		p.byKey[key] = cp
	}
	return cp
}

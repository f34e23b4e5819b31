package tarantool

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Opts configures a Connection. The four timeouts are independent:
// ConnectTimeout/DNSTimeout bound the initial dial, ReadTimeout bounds each
// submitted request's wait for a reply, WriteTimeout bounds each socket
// write.
type Opts struct {
	User     string
	Password string

	ConnectTimeout time.Duration
	DNSTimeout     time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// SkipSchema disables the initial parseSchema call Connect otherwise
	// makes; callers that seed the schema themselves (Schema.Put) or that
	// only ever address spaces/indexes by numeric id can set this to skip
	// a round trip.
	SkipSchema bool

	// StrictSync treats a reply whose sync this connection never issued
	// as a WireError, closing the connection, instead of silently
	// dropping it (the default).
	StrictSync bool

	Logger Logger
}

type pendingRequest struct {
	sync     uint64
	delivery chan pendingResult
}

type pendingResult struct {
	resp *Response
	err  error
}

// Connection is one persistent IPROTO connection: the dispatcher (C4)
// wrapping the wire codec (C1) and handshake (C2), carrying a schema cache
// (C5) and exposing the request surface (C6) as methods.
//
// Exactly one goroutine (reader) ever reads the socket; submit serializes
// writes, sync allocation and the pending table behind a single mutex, per
// the concurrency model's shared-resource policy.
type Connection struct {
	opts Opts

	socket   net.Conn
	greeting Greeting
	salt     [sha1.Size]byte

	schema *Schema

	mu       sync.Mutex
	open     bool
	fatal    error
	nextSync uint64
	pending  map[uint64]*pendingRequest

	keepAliveStop chan struct{}
	keepAliveDone chan struct{}
}

// Connect dials addr, reads the greeting, starts the background reader,
// authenticates (unless the user is unset or "guest" with an empty
// password), loads the schema cache (unless SkipSchema), and starts the
// keep-alive loop (if ReadTimeout is set).
func Connect(ctx context.Context, addr string, opts Opts) (*Connection, error) {
	dialer := net.Dialer{Timeout: opts.ConnectTimeout}
	if opts.DNSTimeout > 0 {
		dialer.Resolver = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{Timeout: opts.DNSTimeout}
				return d.DialContext(ctx, network, address)
			},
		}
	}

	socket, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, ClientError{Code: ErrHandshakeFailed, Msg: err.Error()}
	}

	greeting, err := readGreeting(socket)
	if err != nil {
		socket.Close()
		return nil, err
	}

	c := &Connection{
		opts:     opts,
		socket:   socket,
		greeting: greeting,
		salt:     greeting.salt,
		schema:   NewSchema(),
		pending:  make(map[uint64]*pendingRequest),
		open:     true,
	}

	go c.reader()

	if err := c.authenticate(ctx, opts.User, opts.Password); err != nil {
		c.Close()
		return nil, err
	}

	if !opts.SkipSchema {
		if err := parseSchema(ctx, c); err != nil {
			c.Close()
			return nil, err
		}
	}

	if opts.ReadTimeout > 0 {
		c.startKeepAlive(opts.ReadTimeout / 3)
	}

	c.log(ConnectedEvent{Version: greeting.Version})
	return c, nil
}

// Greeting returns the server's handshake banner and salt.
func (c *Connection) Greeting() Greeting { return c.greeting }

// RemoteAddr returns the address of the Tarantool server.
func (c *Connection) RemoteAddr() net.Addr { return c.socket.RemoteAddr() }

// LocalAddr returns this end of the TCP connection.
func (c *Connection) LocalAddr() net.Addr { return c.socket.LocalAddr() }

// Schema returns the connection's schema cache, for callers that want to
// seed or inspect it directly.
func (c *Connection) Schema() *Schema { return c.schema }

// Alive reports whether the connection is still open.
func (c *Connection) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Connection) stateToString() string {
	if c.Alive() {
		return "open"
	}
	return "closed"
}

// Close marks the connection not-open, fails every pending request with
// ConnectionClosed, and closes the socket.
func (c *Connection) Close() error {
	c.closeFatal(ClientError{Code: ErrConnectionClosed, Msg: "connection closed by caller"})
	return nil
}

// submit assigns a fresh sync, registers its delivery slot, writes the
// encoded frame, and waits for the reader to deliver a reply, a read
// timeout, or context cancellation. Sync allocation, the pending table and
// the socket write all happen under the same mutex, satisfying both the
// "single writer critical section" and "pending guarded by the next_sync
// mutex" requirements without a separate write lock.
func (c *Connection) submit(ctx context.Context, code uint32, body bodyEncoder) (*Response, error) {
	c.mu.Lock()
	if !c.open {
		err := c.fatal
		c.mu.Unlock()
		if err == nil {
			err = ClientError{Code: ErrConnectionClosed, Msg: "connection is closed"}
		}
		return nil, err
	}

	sync := c.nextSync
	c.nextSync++

	frame, err := encodeFrame(code, sync, body)
	if err != nil {
		c.mu.Unlock()
		return nil, ClientError{Code: ErrWire, Msg: err.Error()}
	}

	entry := &pendingRequest{sync: sync, delivery: make(chan pendingResult, 1)}
	c.pending[sync] = entry

	if c.opts.WriteTimeout > 0 {
		c.socket.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	}
	_, writeErr := c.socket.Write(frame)
	if c.opts.WriteTimeout > 0 {
		c.socket.SetWriteDeadline(time.Time{})
	}
	c.mu.Unlock()

	if writeErr != nil {
		werr := ClientError{Code: ErrWire, Msg: writeErr.Error()}
		c.closeFatal(werr)
		return nil, werr
	}

	var timeoutCh <-chan time.Time
	if c.opts.ReadTimeout > 0 {
		timer := time.NewTimer(c.opts.ReadTimeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case res := <-entry.delivery:
		return res.resp, res.err
	case <-timeoutCh:
		c.removePending(sync)
		return nil, ClientError{Code: ErrTimeout, Msg: fmt.Sprintf("request sync=%d timed out", sync)}
	case <-ctx.Done():
		c.removePending(sync)
		return nil, ctx.Err()
	}
}

func (c *Connection) removePending(sync uint64) {
	c.mu.Lock()
	delete(c.pending, sync)
	c.mu.Unlock()
}

// reader is the connection's single background reader: it decodes one
// frame at a time, demultiplexes by sync to the matching pending entry,
// and drops replies whose sync nobody is waiting on anymore (a late reply
// after a timeout or cancellation). A reply whose sync this connection never
// issued is dropped too, unless StrictSync makes it a fatal WireError. Any
// I/O or decode error here is fatal.
func (c *Connection) reader() {
	for {
		payload, err := readFrame(c.socket)
		if err != nil {
			c.closeFatal(classifyReadErr(err))
			return
		}

		header, body, err := decodeFrame(payload)
		if err != nil {
			c.closeFatal(err)
			return
		}
		resp, respErr := newResponse(header, body)

		c.mu.Lock()
		entry, ok := c.pending[header.Sync]
		if ok {
			delete(c.pending, header.Sync)
		}
		strict := c.opts.StrictSync
		issued := header.Sync < c.nextSync
		c.mu.Unlock()

		if !ok {
			if strict && !issued {
				c.closeFatal(ClientError{Code: ErrWire, Msg: fmt.Sprintf("unexpected reply sync=%d", header.Sync)})
				return
			}
			c.log(UnexpectedSyncEvent{Sync: header.Sync})
			continue
		}

		entry.delivery <- pendingResult{resp: resp, err: respErr}
	}
}

func classifyReadErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ClientError{Code: ErrConnectionClosed, Msg: err.Error()}
	}
	return ClientError{Code: ErrWire, Msg: err.Error()}
}

// closeFatal marks the connection closed, fails every pending request with
// err (merged with any error closing the socket itself via
// hashicorp/go-multierror, so neither is silently dropped), and stops the
// keep-alive loop. It is idempotent.
func (c *Connection) closeFatal(err error) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.open = false
	c.fatal = err
	pending := c.pending
	c.pending = make(map[uint64]*pendingRequest)
	c.mu.Unlock()

	closeErr := c.socket.Close()
	combined := err
	if closeErr != nil {
		combined = multierror.Append(err, closeErr).ErrorOrNil()
	}

	for _, entry := range pending {
		entry.delivery <- pendingResult{err: combined}
	}

	c.stopKeepAlive()
	c.log(ConnectionClosedEvent{Err: combined})
}

func (c *Connection) log(event LogEvent) {
	if c.opts.Logger == nil {
		return
	}
	c.opts.Logger.Report(event, c)
}

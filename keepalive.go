package tarantool

import (
	"context"
	"time"
)

// startKeepAlive launches the background PING loop: while the connection
// is open, issue a PING every interval. A failing PING is treated as fatal
// only by virtue of the dispatcher's own rules (a wire or closed-connection
// error already closes the connection via submit/reader); the loop itself
// never restarts the connection, it only logs and, once the connection is
// no longer open, exits.
func (c *Connection) startKeepAlive(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.keepAliveStop = make(chan struct{})
	c.keepAliveDone = make(chan struct{})
	go c.keepAliveLoop(interval)
}

func (c *Connection) keepAliveLoop(interval time.Duration) {
	defer close(c.keepAliveDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.keepAliveStop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			_, err := c.Ping(ctx)
			cancel()
			if err != nil {
				if !c.Alive() {
					return
				}
				c.log(KeepAliveFailedEvent{Err: err})
			}
		}
	}
}

func (c *Connection) stopKeepAlive() {
	if c.keepAliveStop == nil {
		return
	}
	select {
	case <-c.keepAliveStop:
	default:
		close(c.keepAliveStop)
	}
}

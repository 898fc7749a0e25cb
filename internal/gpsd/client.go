package gpsd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"intercept/internal/logging"
)

// Position is the most recent fix reported by gpsd.
type Position struct {
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Altitude   *float64   `json:"altitude,omitempty"`
	Speed      *float64   `json:"speed,omitempty"`
	Heading    *float64   `json:"heading,omitempty"`
	Satellites *int       `json:"satellites,omitempty"`
	FixQuality int        `json:"fix_quality"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Device     string     `json:"device,omitempty"`
}

// watchCommand enables gpsd's line-oriented JSON reporting.
const watchCommand = `?WATCH={"enable":true,"json":true}` + "\n"

const (
	dialTimeout      = 5 * time.Second
	reconnectBackoff = 5 * time.Second
)

// tpvMessage is the subset of gpsd report fields the client consumes.
type tpvMessage struct {
	Class   string   `json:"class"`
	Mode    int      `json:"mode"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Alt     *float64 `json:"alt"`
	Speed   *float64 `json:"speed"`
	Track   *float64 `json:"track"`
	Time    string   `json:"time"`
	Devices []struct {
		Path string `json:"path"`
	} `json:"devices"`
}

// Client maintains a connection to a gpsd daemon and tracks the latest fix.
type Client struct {
	addr   string
	logger *slog.Logger

	mu         sync.Mutex
	position   *Position
	device     string
	lastUpdate time.Time
	err        error
	running    bool

	cancel context.CancelFunc
	done   chan struct{}

	callbacks []func(Position)
}

// NewClient creates a gpsd client for the given host and port.
func NewClient(host string, port int, logger *slog.Logger) *Client {
	return &Client{
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		logger: logging.NewComponentLogger(logger, "gpsd"),
	}
}

// OnUpdate registers a callback invoked on every accepted fix. Callbacks must
// be registered before Start.
func (c *Client) OnUpdate(fn func(Position)) {
	c.callbacks = append(c.callbacks, fn)
}

// Start launches the background read loop. The loop reconnects with backoff
// until the context is canceled.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true
	c.mu.Unlock()

	go c.run(runCtx)
}

// Stop terminates the read loop and waits for it to exit.
func (c *Client) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Position returns the latest fix, or nil when none has been received.
func (c *Client) Position() *Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.position == nil {
		return nil
	}
	fix := *c.position
	return &fix
}

// Running reports whether the read loop is active.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// LastUpdate returns the time of the most recent accepted fix.
func (c *Client) LastUpdate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUpdate
}

// Err returns the most recent connection error, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) run(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.running = false
		close(c.done)
		c.mu.Unlock()
	}()

	for {
		if err := c.readOnce(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("gpsd connection lost", logging.Error(err))
			c.setErr(err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (c *Client) readOnce(ctx context.Context) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dial gpsd: %w", err)
	}
	defer conn.Close()

	// Unblock the blocking reader when the context is canceled.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if _, err := conn.Write([]byte(watchCommand)); err != nil {
		return fmt.Errorf("enable watch mode: %w", err)
	}

	c.logger.Info("connected to gpsd", logging.String("address", c.addr))
	c.setErr(nil)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg tpvMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			c.logger.Debug("invalid JSON from gpsd")
			continue
		}

		switch msg.Class {
		case "TPV":
			c.handleTPV(msg)
		case "DEVICES":
			if len(msg.Devices) > 0 {
				c.mu.Lock()
				c.device = msg.Devices[0].Path
				c.mu.Unlock()
			}
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read gpsd: %w", err)
	}
	return nil
}

func (c *Client) handleTPV(msg tpvMessage) {
	// mode: 0=unknown, 1=no fix, 2=2D fix, 3=3D fix.
	if msg.Mode < 2 || msg.Lat == nil || msg.Lon == nil {
		return
	}

	fix := Position{
		Latitude:   *msg.Lat,
		Longitude:  *msg.Lon,
		Altitude:   msg.Alt,
		Speed:      msg.Speed,
		Heading:    msg.Track,
		FixQuality: msg.Mode,
	}
	if msg.Time != "" {
		if ts, err := time.Parse(time.RFC3339Nano, msg.Time); err == nil {
			fix.Timestamp = &ts
		}
	}

	c.mu.Lock()
	fix.Device = c.device
	c.position = &fix
	c.lastUpdate = time.Now()
	callbacks := c.callbacks
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(fix)
	}
}

func (c *Client) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

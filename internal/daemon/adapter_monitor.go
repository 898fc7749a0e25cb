package daemon

import (
	"context"
	"sort"
	"strings"
	"sync"

	"log/slog"

	"github.com/pilebones/go-udev/netlink"

	"intercept/internal/api"
	"intercept/internal/logging"
)

// adapterMonitor listens for udev netlink events and tracks the capture
// adapters (wireless NICs and bluetooth controllers) attached to the host, so
// the status endpoint can report hotplug without polling sysfs.
type adapterMonitor struct {
	logger *slog.Logger

	mu       sync.Mutex
	conn     *netlink.UEventConn
	quit     chan struct{}
	running  bool
	adapters map[string]api.AdapterStatus
}

func newAdapterMonitor(logger *slog.Logger) *adapterMonitor {
	return &adapterMonitor{
		logger:   logging.NewComponentLogger(logger, "adapter-monitor"),
		adapters: make(map[string]api.AdapterStatus),
	}
}

// Start begins listening for udev netlink events.
func (m *adapterMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; adapter hotplug tracking disabled",
			logging.Error(err))
		return nil // Non-fatal, status just omits adapters.
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	// Pass quit channel to goroutine to avoid reading m.quit without lock
	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("adapter monitor started")
	return nil
}

// Stop shuts down the adapter monitor.
func (m *adapterMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}

	m.running = false
	m.logger.Info("adapter monitor stopped")
}

// Running reports whether the adapter monitor is active.
func (m *adapterMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Adapters returns the tracked adapters sorted by name.
func (m *adapterMonitor) Adapters() []api.AdapterStatus {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]api.AdapterStatus, 0, len(m.adapters))
	for _, adapter := range m.adapters {
		out = append(out, adapter)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// monitorLoop reads netlink events and records adapter arrivals and removals.
func (m *adapterMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := m.buildMatcher()

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, matcher)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("adapter monitor error", logging.Error(err))
		}
	}
}

// buildMatcher creates a matcher for wireless and bluetooth adapter events.
// Matches: SUBSYSTEM=net|bluetooth, ACTION=add|remove
func (m *adapterMonitor) buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env:    map[string]string{"SUBSYSTEM": "net"},
	})
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env:    map[string]string{"SUBSYSTEM": "bluetooth"},
	})
	return rules
}

// handleEvent processes a matched uevent.
func (m *adapterMonitor) handleEvent(uevent netlink.UEvent) {
	name := m.extractAdapterName(uevent)
	if name == "" {
		m.logger.Debug("ignoring event without adapter name",
			logging.String("action", string(uevent.Action)),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	subsystem := uevent.Env["SUBSYSTEM"]
	present := uevent.Action == netlink.ADD

	m.mu.Lock()
	m.adapters[name] = api.AdapterStatus{
		Name:      name,
		Subsystem: subsystem,
		Present:   present,
	}
	m.mu.Unlock()

	if present {
		m.logger.Info("adapter attached",
			logging.String("adapter", name),
			logging.String("subsystem", subsystem),
		)
	} else {
		m.logger.Info("adapter removed",
			logging.String("adapter", name),
			logging.String("subsystem", subsystem),
		)
	}
}

// extractAdapterName gets the interface or controller name from a uevent.
func (m *adapterMonitor) extractAdapterName(uevent netlink.UEvent) string {
	if iface := uevent.Env["INTERFACE"]; iface != "" {
		return iface
	}
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}

	// Fall back to the last DEVPATH segment (e.g. /devices/.../bluetooth/hci0).
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

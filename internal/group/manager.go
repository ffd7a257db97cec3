package group

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strings"
	"sync"

	"github.com/jmylchreest/wizctl/internal/config"
	wizerrors "github.com/jmylchreest/wizctl/internal/errors"
	"github.com/jmylchreest/wizctl/internal/events"
	"github.com/jmylchreest/wizctl/pkg/wiz"
)

// Controller is the part of a connected device a group drives.
type Controller interface {
	SetPilot(cmd wiz.PilotCommand) error
	Close() error
}

// ConnectFunc opens a Controller for the device at ip.
type ConnectFunc func(ip net.IP) (Controller, error)

// FromClient adapts a wiz.Client to a ConnectFunc.
func FromClient(c *wiz.Client) ConnectFunc {
	return func(ip net.IP) (Controller, error) {
		d, err := c.Connect(ip)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

// Manager handles device groups persisted in the config file
type Manager struct {
	logger  *slog.Logger
	connect ConnectFunc
	cfg     *config.Config
	bus     *events.Bus

	mu     sync.RWMutex
	groups map[string]*Group
}

// Group is a named set of device addresses that are controlled together
type Group struct {
	Name    string   `json:"name" yaml:"name"`
	Devices []string `json:"devices" yaml:"devices"`
}

// MarshalJSON ensures that Devices is always marshaled as [] instead of null
func (g *Group) MarshalJSON() ([]byte, error) {
	type Alias Group
	tmp := &struct {
		*Alias
	}{
		Alias: (*Alias)(g),
	}
	if tmp.Devices == nil {
		tmp.Devices = []string{}
	}
	return json.Marshal(tmp)
}

// NewManager creates a new group manager and loads the groups from cfg
func NewManager(logger *slog.Logger, cfg *config.Config, connect ConnectFunc) *Manager {
	m := &Manager{
		logger:  logger,
		connect: connect,
		cfg:     cfg,
		groups:  make(map[string]*Group),
	}
	for _, gc := range cfg.Groups {
		m.groups[gc.Name] = &Group{Name: gc.Name, Devices: slices.Clone(gc.Devices)}
	}
	logger.Debug("loaded groups from config", "count", len(m.groups))
	return m
}

// SetEventBus makes the manager publish group events to bus
func (m *Manager) SetEventBus(bus *events.Bus) {
	m.bus = bus
}

func (m *Manager) emit(t events.EventType, data any) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.NewEvent(t, data))
}

// saveGroups writes the current groups back to the config file
func (m *Manager) saveGroups() error {
	m.mu.RLock()
	out := make([]config.GroupConfig, 0, len(m.groups))
	for _, g := range m.sortedLocked() {
		out = append(out, config.GroupConfig{Name: g.Name, Devices: slices.Clone(g.Devices)})
	}
	m.mu.RUnlock()

	m.cfg.Groups = out
	if err := m.cfg.Save(); err != nil {
		return wizerrors.WrapErrorf(err, "failed to save groups to config")
	}
	return nil
}

func (m *Manager) sortedLocked() []*Group {
	groups := make([]*Group, 0, len(m.groups))
	for _, g := range m.groups {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b *Group) int {
		return strings.Compare(a.Name, b.Name)
	})
	return groups
}

// normalizeDevices validates addresses and removes duplicates, keeping order.
func normalizeDevices(devices []string) ([]string, error) {
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		ip := net.ParseIP(strings.TrimSpace(d))
		if ip == nil || ip.To4() == nil {
			return nil, wizerrors.InvalidInputf("invalid IPv4 address %q", d)
		}
		if s := ip.String(); !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// CreateGroup creates a new group of devices
func (m *Manager) CreateGroup(name string, devices []string) (*Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, wizerrors.InvalidInputf("group name must not be empty")
	}
	normalized, err := normalizeDevices(devices)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if _, exists := m.groups[name]; exists {
		m.mu.Unlock()
		return nil, wizerrors.InvalidInputf("group %q already exists", name)
	}
	group := &Group{Name: name, Devices: normalized}
	m.groups[name] = group
	m.mu.Unlock()

	if err := m.saveGroups(); err != nil {
		return nil, err
	}

	m.logger.Info("created group", "name", name, "devices", normalized)
	m.emit(events.GroupCreated, group)
	return group, nil
}

// DeleteGroup removes a group
func (m *Manager) DeleteGroup(name string) error {
	m.mu.Lock()
	if _, exists := m.groups[name]; !exists {
		m.mu.Unlock()
		return wizerrors.NotFoundf("group %q", name)
	}
	delete(m.groups, name)
	m.mu.Unlock()

	if err := m.saveGroups(); err != nil {
		return err
	}

	m.logger.Info("deleted group", "name", name)
	m.emit(events.GroupDeleted, map[string]string{"name": name})
	return nil
}

// GetGroup returns a copy of the named group
func (m *Manager) GetGroup(name string) (*Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	group, exists := m.groups[name]
	if !exists {
		return nil, wizerrors.NotFoundf("group %q", name)
	}
	return &Group{Name: group.Name, Devices: slices.Clone(group.Devices)}, nil
}

// GetGroups returns all groups sorted by name
func (m *Manager) GetGroups() []*Group {
	m.mu.RLock()
	defer m.mu.RUnlock()

	groups := m.sortedLocked()
	out := make([]*Group, len(groups))
	for i, g := range groups {
		out[i] = &Group{Name: g.Name, Devices: slices.Clone(g.Devices)}
	}
	return out
}

// SetGroupDevices replaces the devices in a group
func (m *Manager) SetGroupDevices(name string, devices []string) error {
	normalized, err := normalizeDevices(devices)
	if err != nil {
		return err
	}

	m.mu.Lock()
	group, exists := m.groups[name]
	if !exists {
		m.mu.Unlock()
		return wizerrors.NotFoundf("group %q", name)
	}
	group.Devices = normalized
	m.mu.Unlock()

	if err := m.saveGroups(); err != nil {
		return err
	}

	m.logger.Info("updated group devices", "name", name, "devices", normalized)
	m.emit(events.GroupUpdated, &Group{Name: name, Devices: normalized})
	return nil
}

// SetPilot applies cmd to every device in the group. Devices are driven in
// parallel, each over its own connection; a failing device does not stop
// the others and all failures are returned joined.
func (m *Manager) SetPilot(name string, cmd wiz.PilotCommand) error {
	group, err := m.GetGroup(name)
	if err != nil {
		return err
	}

	errCh := make(chan error, len(group.Devices))
	var wg sync.WaitGroup
	for _, addr := range group.Devices {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			if err := m.setDevicePilot(addr, cmd); err != nil {
				m.logger.Warn("group: device update failed", "group", name, "ip", addr, "error", err)
				errCh <- fmt.Errorf("device %s: %w", addr, err)
			}
		}(addr)
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (m *Manager) setDevicePilot(addr string, cmd wiz.PilotCommand) error {
	dev, err := m.connect(net.ParseIP(addr))
	if err != nil {
		return err
	}
	defer dev.Close()
	return dev.SetPilot(cmd)
}

//go:build linux

package monitor

import (
	"github.com/godbus/dbus/v5"
)

const busInterface = "org.freedesktop.DBus"

// DBusClient is the subset of the session bus the monitor needs.
// It is mocked in tests.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/sbcast/internal/monitor DBusClient
type DBusClient interface {
	Close() error

	// AddMatchSignal subscribes to signals matching all options
	AddMatchSignal(options ...dbus.MatchOption) error

	// Signal registers a channel to receive the subscribed signals
	Signal(ch chan<- *dbus.Signal)

	// ListNames returns all names currently on the bus
	ListNames() ([]string, error)

	// GetNameOwner returns the unique name (":1.45") owning a well-known name.
	// It fails when the name has no owner.
	GetNameOwner(name string) (string, error)

	// GetProperty reads prop (e.g. "org.mpris.MediaPlayer2.Player.Metadata")
	// from the object at path owned by player, which may be a well-known or unique name
	GetProperty(player, path, prop string) (dbus.Variant, error)
}

// StdDBusClient is the godbus implementation of DBusClient
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient connects to the session bus
func NewStdDBusClient() (*StdDBusClient, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

func (c *StdDBusClient) AddMatchSignal(options ...dbus.MatchOption) error {
	return c.conn.AddMatchSignal(options...)
}

func (c *StdDBusClient) Signal(ch chan<- *dbus.Signal) {
	c.conn.Signal(ch)
}

func (c *StdDBusClient) ListNames() ([]string, error) {
	var names []string
	err := c.busCall("ListNames").Store(&names)
	return names, err
}

func (c *StdDBusClient) GetNameOwner(name string) (string, error) {
	var owner string
	err := c.busCall("GetNameOwner", name).Store(&owner)
	return owner, err
}

func (c *StdDBusClient) GetProperty(player, path, prop string) (dbus.Variant, error) {
	return c.conn.Object(player, dbus.ObjectPath(path)).GetProperty(prop)
}

// busCall invokes a method of the bus daemon itself
func (c *StdDBusClient) busCall(method string, args ...interface{}) *dbus.Call {
	return c.conn.BusObject().Call(busInterface+"."+method, 0, args...)
}

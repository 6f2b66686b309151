package plugin

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPConnectOptions configures the tcp.connect reference plugin.
type TCPConnectOptions struct{}

// Validate is a no-op; tcp.connect takes no options.
func (o *TCPConnectOptions) Validate() error { return nil }

// TCPConnect is a minimal port-liveness probe: it only uses the target and
// port dimensions and reports a Loot when the port accepts a connection.
type TCPConnect struct{}

// NewTCPConnect builds the tcp.connect reference plugin.
func NewTCPConnect() *TCPConnect { return &TCPConnect{} }

func (TCPConnect) ID() string                      { return "tcp.connect" }
func (TCPConnect) DefaultPort() int                 { return 0 }
func (TCPConnect) SingleMatch() bool                { return false }
func (TCPConnect) NewOptions() Options              { return &TCPConnectOptions{} }
func (TCPConnect) RequiredDimensions() []Dimension { return []Dimension{DimensionTarget, DimensionPort} }

func (p TCPConnect) Attempt(ctx context.Context, creds Credentials, _ Options) (*Loot, error) {
	addr := fmt.Sprintf("%s:%d", creds.Target, creds.Port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTransientError(err)
		}
		return nil, NewTransientError(err)
	}
	defer conn.Close()

	return &Loot{
		Plugin:      p.ID(),
		Target:      creds.Target,
		Port:        creds.Port,
		Credentials: map[string]string{},
		Timestamp:   time.Now(),
	}, nil
}

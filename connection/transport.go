package connection

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"go.bug.st/serial"
)

// DefaultPort is the AVR control port. Port 23 also works on most models but
// does not emit keepalives.
const DefaultPort = 8102

const defaultKeepAlive = 30 * time.Second

// Transport dials the link carrying the AVR control session.
type Transport interface {
	Dial(ctx context.Context, timeout time.Duration) (io.ReadWriteCloser, error)
	String() string
}

// TCPTransport connects to the AVR network control port with TCP keepalive
// enabled.
type TCPTransport struct {
	Host string
	Port int

	// KeepAlive overrides the OS TCP keepalive idle period.
	KeepAlive time.Duration
}

func (t *TCPTransport) Dial(ctx context.Context, timeout time.Duration) (io.ReadWriteCloser, error) {
	port := t.Port
	if port == 0 {
		port = DefaultPort
	}
	keepAlive := t.KeepAlive
	if keepAlive == 0 {
		keepAlive = defaultKeepAlive
	}
	d := net.Dialer{Timeout: timeout, KeepAlive: keepAlive}
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", t.Host, port))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (t *TCPTransport) String() string {
	port := t.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("tcp://%s:%d", t.Host, port)
}

// SerialTransport connects to the AVR RS-232 control port, which carries the
// same ASCII protocol as the network port.
type SerialTransport struct {
	Device   string
	BaudRate int // default 9600
}

func (t *SerialTransport) Dial(_ context.Context, _ time.Duration) (io.ReadWriteCloser, error) {
	baud := t.BaudRate
	if baud == 0 {
		baud = 9600
	}
	port, err := serial.Open(t.Device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	return port, nil
}

func (t *SerialTransport) String() string {
	return "serial://" + t.Device
}

package pioneeravr_test

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crowbarz/pioneeravr-go/connection"
)

// avrEmulator is an in-process AVR speaking the line protocol over TCP. It
// models two zones (Main and Zone 2), a tuner and a source name table.
type avrEmulator struct {
	t  *testing.T
	ln net.Listener

	mu       sync.Mutex
	conn     net.Conn
	received []string

	powerMain  bool
	powerZone2 bool
	muteMain   bool
	muteZone2  bool
	volMain    int
	volZone2   int
	srcMain    string
	srcZone2   string
	band       byte // 'F' or 'A'
	freq       int  // FM: MHz*100, AM: kHz
	model      string
	names      map[string]string
	direct     bool // supports direct frequency entry
	swallow    bool // stop responding to commands
}

func newEmulator(t *testing.T) *avrEmulator {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	e := &avrEmulator{
		t:         t,
		ln:        ln,
		powerMain: true,
		volMain:   121,
		volZone2:  40,
		srcMain:   "19",
		srcZone2:  "01",
		band:      'F',
		freq:      8750,
		model:     "VSX-1021",
		names:     map[string]string{},
	}
	go e.acceptLoop()
	t.Cleanup(func() { _ = ln.Close() })
	return e
}

func (e *avrEmulator) transport() *connection.TCPTransport {
	addr := e.ln.Addr().(*net.TCPAddr)
	return &connection.TCPTransport{Host: "127.0.0.1", Port: addr.Port}
}

func (e *avrEmulator) acceptLoop() {
	for {
		conn, err := e.ln.Accept()
		if err != nil {
			return
		}
		e.mu.Lock()
		e.conn = conn
		e.mu.Unlock()
		go e.serve(conn)
	}
}

func (e *avrEmulator) serve(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		e.mu.Lock()
		e.received = append(e.received, line)
		swallow := e.swallow
		reply := ""
		if !swallow {
			reply = e.handleLocked(line)
		}
		e.mu.Unlock()
		if reply != "" {
			e.writeLine(conn, reply)
		}
	}
}

func (e *avrEmulator) writeLine(conn net.Conn, line string) {
	_, _ = conn.Write([]byte(line + "\r\n"))
}

// sendUnsolicited pushes a status line outside any request/response cycle.
func (e *avrEmulator) sendUnsolicited(line string) {
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()
	if conn != nil {
		e.writeLine(conn, line)
	}
}

func (e *avrEmulator) closeConn() {
	e.mu.Lock()
	conn := e.conn
	e.conn = nil
	e.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (e *avrEmulator) setSwallow(v bool) {
	e.mu.Lock()
	e.swallow = v
	e.mu.Unlock()
}

// count returns how many received lines match the given line exactly.
func (e *avrEmulator) count(line string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, l := range e.received {
		if l == line {
			n++
		}
	}
	return n
}

func (e *avrEmulator) lines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.received...)
}

func onOff(on bool) string {
	if on {
		return "0"
	}
	return "1"
}

func (e *avrEmulator) freqFrame() string {
	if e.band == 'F' {
		return fmt.Sprintf("FRF%05d", e.freq)
	}
	return fmt.Sprintf("FRA%05d", e.freq)
}

func (e *avrEmulator) handleLocked(line string) string {
	switch line {
	// Main zone power
	case "?P":
		return "PWR" + onOff(e.powerMain)
	case "PO":
		e.powerMain = true
		return "PWR0"
	case "PF":
		e.powerMain = false
		return "PWR1"

	// Zone 2 power
	case "?AP":
		return "APR" + onOff(e.powerZone2)
	case "APO":
		e.powerZone2 = true
		return "APR0"
	case "APF":
		e.powerZone2 = false
		return "APR1"

	// Main zone volume
	case "?V":
		return fmt.Sprintf("VOL%03d", e.volMain)
	case "VU":
		e.volMain++
		return fmt.Sprintf("VOL%03d", e.volMain)
	case "VD":
		e.volMain--
		return fmt.Sprintf("VOL%03d", e.volMain)

	// Zone 2 volume
	case "?ZV":
		return fmt.Sprintf("ZV%02d", e.volZone2)
	case "ZU":
		e.volZone2++
		return fmt.Sprintf("ZV%02d", e.volZone2)
	case "ZD":
		e.volZone2--
		return fmt.Sprintf("ZV%02d", e.volZone2)

	// Mute
	case "?M":
		return "MUT" + onOff(e.muteMain)
	case "MO":
		e.muteMain = true
		return "MUT0"
	case "MF":
		e.muteMain = false
		return "MUT1"
	case "?Z2M":
		return "Z2MUT" + onOff(e.muteZone2)
	case "Z2MO":
		e.muteZone2 = true
		return "Z2MUT0"
	case "Z2MF":
		e.muteZone2 = false
		return "Z2MUT1"

	// Source
	case "?F":
		return "FN" + e.srcMain
	case "?ZS":
		return "Z2F" + e.srcZone2

	// Listening mode
	case "?S":
		return "SR0001"

	// System identity
	case "?RGD":
		return "RGD<" + e.model + "/CUXESM>"
	case "?SSI":
		return `SSI"1.368"`
	case "?SVB":
		return "SVB0005BF113333"

	// Tuner
	case "?FR":
		return e.freqFrame()
	case "?PR":
		return "PRA01"
	case "TFI":
		if e.band == 'F' {
			e.freq += 10
		} else {
			e.freq += 9
		}
		return e.freqFrame()
	case "TFD":
		if e.band == 'F' {
			e.freq -= 10
		} else {
			e.freq -= 9
		}
		return e.freqFrame()
	case "00TN":
		e.band = 'F'
		e.freq = 8750
		return e.freqFrame()
	case "01TN":
		e.band = 'A'
		e.freq = 1000
		return e.freqFrame()
	case "TDA":
		if e.direct {
			return "TDA"
		}
		return "E04"
	}

	// Remote operation codes are fire-and-forget.
	if strings.HasSuffix(line, "NW") || strings.HasSuffix(line, "IP") {
		return ""
	}

	// Listening mode set: <mode>SR
	if id, ok := strings.CutSuffix(line, "SR"); ok && len(id) == 4 {
		return "SR" + id
	}

	// Volume set: <vol>VL / <vol>ZV
	if v, ok := strings.CutSuffix(line, "VL"); ok && len(v) == 3 {
		fmt.Sscanf(v, "%d", &e.volMain)
		return fmt.Sprintf("VOL%03d", e.volMain)
	}
	if v, ok := strings.CutSuffix(line, "ZV"); ok && len(v) == 2 {
		fmt.Sscanf(v, "%d", &e.volZone2)
		return fmt.Sprintf("ZV%02d", e.volZone2)
	}

	// Source select: <id>FN / <id>ZS
	if id, ok := strings.CutSuffix(line, "FN"); ok && len(id) == 2 {
		e.srcMain = id
		return "FN" + id
	}
	if id, ok := strings.CutSuffix(line, "ZS"); ok && len(id) == 2 {
		e.srcZone2 = id
		return "Z2F" + id
	}

	// Source name query: ?RGB<id>
	if id, ok := strings.CutPrefix(line, "?RGB"); ok {
		if name, found := e.names[id]; found {
			return "RGB" + id + "1" + name
		}
		return "E04"
	}

	return "E04"
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

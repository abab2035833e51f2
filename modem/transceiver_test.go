package modem

import (
	"bufio"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"

	"pdusms/sms"
)

// fakeModem answers commands written to the transceiver. Commands end with CR,
// PDU payloads with Ctrl-Z.
type fakeModem struct {
	conn   net.Conn
	answer func(cmd string) string
	mu     sync.Mutex
	got    []string
}

func newFakeModem(t *testing.T, answer func(cmd string) string) (*Transceiver, *fakeModem) {
	t.Helper()
	client, server := net.Pipe()
	fake := &fakeModem{conn: server, answer: answer}
	go fake.serve()
	logEntry := logrus.NewEntry(logrus.StandardLogger()).WithField("port", "pipe")
	trx := NewTransceiver(client, logEntry)
	trx.Timeout = time.Second
	t.Cleanup(func() {
		trx.Close()
		server.Close()
	})
	return trx, fake
}

func (m *fakeModem) serve() {
	r := bufio.NewReader(m.conn)
	for {
		var cmd []byte
		for {
			b, err := r.ReadByte()
			if err != nil {
				return
			}
			if b == '\r' || b == 0x1A {
				break
			}
			cmd = append(cmd, b)
		}
		m.mu.Lock()
		m.got = append(m.got, string(cmd))
		m.mu.Unlock()
		if resp := m.answer(string(cmd)); resp != "" {
			if _, err := m.conn.Write([]byte(resp)); err != nil {
				return
			}
		}
	}
}

func (m *fakeModem) commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.got...)
}

// gsmModem behaves like a modem that accepts every frame.
func gsmModem() func(cmd string) string {
	var mr int
	return func(cmd string) string {
		switch {
		case strings.HasPrefix(cmd, "AT+CMGS="):
			return "\r\n> "
		case strings.HasPrefix(cmd, "AT"):
			return "\r\nOK\r\n"
		default:
			mr++
			return "\r\n+CMGS: " + strconv.Itoa(mr) + "\r\n\r\nOK\r\n"
		}
	}
}

func TestInit(t *testing.T) {
	trx, fake := newFakeModem(t, gsmModem())
	if err := trx.Init(); err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(fake.commands(), []string{"ATE0", "AT+CMGF=0"}); len(diff) > 0 {
		t.Errorf("commands: %v", diff)
	}
}

func TestSend(t *testing.T) {
	trx, fake := newFakeModem(t, gsmModem())
	frames, err := sms.Generate(sms.OutgoingMessage{
		Number: "+79026000000",
		Text:   strings.Repeat("long message ", 20),
	})
	if err != nil {
		t.Fatal(err)
	}
	refs, err := trx.Send(frames)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(refs, []int{1, 2}); len(diff) > 0 {
		t.Errorf("refs: %v", diff)
	}
	got := fake.commands()
	if len(got) != 4 {
		t.Fatalf("commands: %# v", pretty.Formatter(got))
	}
	for i, frame := range frames {
		if want := "AT+CMGS=" + strconv.Itoa(frame.TPDULength()); got[2*i] != want {
			t.Errorf("command %q, want %q", got[2*i], want)
		}
		if got[2*i+1] != frame.String() {
			t.Errorf("payload %q, want %q", got[2*i+1], frame)
		}
	}
}

func TestSubmitGolden(t *testing.T) {
	trx, fake := newFakeModem(t, gsmModem())
	frame := sms.Frame("0001000B919720060000F0000005E8329BFD06")
	mr, err := trx.Submit(frame)
	if err != nil {
		t.Fatal(err)
	}
	if mr != 1 {
		t.Errorf("mr = %d", mr)
	}
	if got := fake.commands(); got[0] != "AT+CMGS=18" {
		t.Errorf("length command %q", got[0])
	}
}

func TestSubmitError(t *testing.T) {
	trx, _ := newFakeModem(t, func(cmd string) string {
		if strings.HasPrefix(cmd, "AT+CMGS=") {
			return "\r\n> "
		}
		return "\r\n+CMS ERROR: 500\r\n"
	})
	_, err := trx.Submit(sms.Frame("0001000B919720060000F0000005E8329BFD06"))
	var cerr *CommandError
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %v, want CommandError", err)
	}
	if cerr.Line != "+CMS ERROR: 500" {
		t.Errorf("line = %q", cerr.Line)
	}
}

func TestPromptError(t *testing.T) {
	trx, _ := newFakeModem(t, func(cmd string) string {
		return "\r\nERROR\r\n"
	})
	_, err := trx.Submit(sms.Frame("0001000B919720060000F0000005E8329BFD06"))
	var cerr *CommandError
	if !errors.As(err, &cerr) || cerr.Command != "AT+CMGS=18" {
		t.Errorf("error = %v", err)
	}
}

func TestTimeout(t *testing.T) {
	trx, _ := newFakeModem(t, func(cmd string) string { return "" })
	trx.Timeout = 50 * time.Millisecond
	if err := trx.Init(); !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestClosed(t *testing.T) {
	trx, _ := newFakeModem(t, gsmModem())
	if err := trx.Close(); err != nil {
		t.Fatal(err)
	}
	if err := trx.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if _, err := trx.Submit(sms.Frame("00")); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
	if err := trx.Init(); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
}

func TestScanLines(t *testing.T) {
	input := "\r\nOK\r\n\r\n> +CMGS: 7\r\n\r\nOK\r\ntail"
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(scanLines)
	var tokens []string
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	want := []string{"OK", "> ", "+CMGS: 7", "OK", "tail"}
	if diff := pretty.Diff(tokens, want); len(diff) > 0 {
		t.Errorf("tokens: %v", diff)
	}
}

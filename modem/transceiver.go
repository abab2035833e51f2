package modem

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"pdusms/sms"
)

// DefaultTimeout is the time to wait for a modem response to one command.
var DefaultTimeout = 30 * time.Second

var (
	ErrTimeout = errors.New("modem: response timeout")
	ErrClosed  = errors.New("modem: connection closed")
)

// CommandError is returned when the modem answers a command with an error line.
type CommandError struct {
	Command string // command that failed
	Line    string // error line as received, e.g. "+CMS ERROR: 500"
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("modem: %s: %s", e.Command, e.Line)
}

// Transceiver submits PDU frames to a GSM modem with AT commands.
type Transceiver struct {
	port     io.ReadWriteCloser // serial line
	Timeout  time.Duration      // wait for a single response
	Logger   *logrus.Entry      // log output
	lines    chan string        // lines read from the modem
	done     chan struct{}      // closed by Close
	readErr  error              // read error, valid after lines is closed
	isClosed atomic.Bool        // flag for closed connection
	mu       sync.Mutex         // one command at a time
}

// Dial opens the serial port and returns a transceiver on top of it.
func Dial(name string, baud int) (*Transceiver, error) {
	if baud <= 0 {
		baud = 115200
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("modem: open %s: %w", name, err)
	}
	logEntry := logrus.StandardLogger().WithField("port", name)
	return NewTransceiver(port, logEntry), nil
}

// NewTransceiver starts reading modem output from port. A nil logEntry logs to
// the standard logger.
func NewTransceiver(port io.ReadWriteCloser, logEntry *logrus.Entry) *Transceiver {
	if logEntry == nil {
		logEntry = logrus.NewEntry(logrus.StandardLogger())
	}
	trx := &Transceiver{
		port:    port,
		Timeout: DefaultTimeout,
		Logger:  logEntry,
		lines:   make(chan string, 16),
		done:    make(chan struct{}),
	}
	go trx.reading(logEntry)
	return trx
}

// Init turns off command echo and switches the modem to PDU mode.
func (trx *Transceiver) Init() error {
	trx.mu.Lock()
	defer trx.mu.Unlock()
	for _, cmd := range []string{"ATE0", "AT+CMGF=0"} {
		if err := trx.exec(cmd); err != nil {
			return err
		}
	}
	trx.Logger.Info("modem ready")
	return nil
}

// Submit sends one frame and returns the message reference assigned by the
// network.
func (trx *Transceiver) Submit(frame sms.Frame) (int, error) {
	trx.mu.Lock()
	defer trx.mu.Unlock()
	if trx.isClosed.Load() {
		return 0, ErrClosed
	}
	trx.drain()
	cmd := "AT+CMGS=" + strconv.Itoa(frame.TPDULength())
	if err := trx.write(cmd + "\r"); err != nil {
		return 0, err
	}
	err := trx.await(func(line string) (bool, error) {
		if isErrorLine(line) {
			return false, &CommandError{Command: cmd, Line: line}
		}
		return line == prompt, nil
	})
	if err != nil {
		return 0, err
	}
	if err := trx.write(frame.String() + "\x1A"); err != nil {
		return 0, err
	}
	mr := -1
	err = trx.await(func(line string) (bool, error) {
		switch {
		case isErrorLine(line):
			return false, &CommandError{Command: cmd, Line: line}
		case strings.HasPrefix(line, "+CMGS:"):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "+CMGS:")))
			if err != nil {
				return false, fmt.Errorf("modem: bad response %q", line)
			}
			mr = n
		case line == "OK":
			if mr < 0 {
				return false, fmt.Errorf("modem: %s: no message reference", cmd)
			}
			return true, nil
		}
		return false, nil
	})
	return mr, err
}

// Send submits frames in order. It stops at the first failure and returns the
// references of the frames that were accepted.
func (trx *Transceiver) Send(frames []sms.Frame) ([]int, error) {
	refs := make([]int, 0, len(frames))
	for i, frame := range frames {
		logEntry := trx.Logger.WithFields(logrus.Fields{
			"part":  i + 1,
			"total": len(frames),
		})
		logEntry.Debugf("PDU %s", frame)
		mr, err := trx.Submit(frame)
		if err != nil {
			logEntry.WithError(err).Error("PDU submit")
			return refs, err
		}
		logEntry.WithField("mr", mr).Info("PDU sent")
		refs = append(refs, mr)
	}
	return refs, nil
}

// Close stops reading and closes the port.
func (trx *Transceiver) Close() error {
	if !trx.isClosed.CompareAndSwap(false, true) {
		return nil
	}
	close(trx.done)
	trx.Logger.Info("modem close")
	return trx.port.Close()
}

// exec sends a plain command and waits for OK.
func (trx *Transceiver) exec(cmd string) error {
	if trx.isClosed.Load() {
		return ErrClosed
	}
	trx.drain()
	if err := trx.write(cmd + "\r"); err != nil {
		return err
	}
	return trx.await(func(line string) (bool, error) {
		if isErrorLine(line) {
			return false, &CommandError{Command: cmd, Line: line}
		}
		return line == "OK", nil
	})
}

func (trx *Transceiver) write(s string) error {
	if _, err := io.WriteString(trx.port, s); err != nil {
		if trx.isClosed.Load() {
			return ErrClosed
		}
		return fmt.Errorf("modem: write: %w", err)
	}
	return nil
}

// await passes incoming lines to handle until it reports completion or an
// error, or the timeout expires.
func (trx *Transceiver) await(handle func(line string) (bool, error)) error {
	timeout := trx.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-trx.lines:
			if !ok {
				if trx.isClosed.Load() || trx.readErr == nil {
					return ErrClosed
				}
				return fmt.Errorf("modem: read: %w", trx.readErr)
			}
			if done, err := handle(line); err != nil || done {
				return err
			}
		case <-timer.C:
			return ErrTimeout
		}
	}
}

// drain drops unsolicited lines left from earlier output.
func (trx *Transceiver) drain() {
	for {
		select {
		case line, ok := <-trx.lines:
			if !ok {
				return
			}
			trx.Logger.WithField("line", line).Debug("modem unsolicited")
		default:
			return
		}
	}
}

// reading delivers modem output line by line until the port is closed.
func (trx *Transceiver) reading(logEntry *logrus.Entry) {
	defer close(trx.lines)
	scanner := bufio.NewScanner(trx.port)
	scanner.Split(scanLines)
	for scanner.Scan() {
		line := scanner.Text()
		logEntry.WithField("line", line).Debug("modem read")
		select {
		case trx.lines <- line:
		case <-trx.done:
			return
		}
	}
	if err := scanner.Err(); err != nil && !trx.isClosed.Load() {
		trx.readErr = err
		logEntry.WithError(err).Error("modem read")
	}
}

const prompt = "> "

// isErrorLine reports whether line is a final error result.
func isErrorLine(line string) bool {
	return line == "ERROR" ||
		strings.HasPrefix(line, "+CMS ERROR") ||
		strings.HasPrefix(line, "+CME ERROR")
}

// scanLines is a bufio.SplitFunc for modem output: CR/LF terminated lines with
// empty lines skipped, and the "> " prompt that has no line ending.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && (data[start] == '\r' || data[start] == '\n') {
		start++
	}
	rest := data[start:]
	switch {
	case len(rest) == 0:
		return start, nil, nil
	case bytes.HasPrefix(rest, []byte(prompt)):
		return start + len(prompt), rest[:len(prompt)], nil
	case len(rest) == 1 && rest[0] == '>' && !atEOF:
		return start, nil, nil // wait for the rest of the prompt
	}
	if i := bytes.IndexAny(rest, "\r\n"); i >= 0 {
		return start + i + 1, rest[:i], nil
	}
	if atEOF {
		return len(data), rest, nil
	}
	return start, nil, nil
}

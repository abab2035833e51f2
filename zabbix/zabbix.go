package zabbix

import (
	"os/exec"
	"strconv"
)

// Monitoring keys.
const (
	KeySent  = "sms.pdu.sent"  // number of frames submitted
	KeyError = "sms.pdu.error" // submission error text
)

// Command is the sender binary.
var Command = "zabbix_sender"

type Log struct {
	Server string `yaml:"server,omitempty" env:"SERVER"`
	Host   string `yaml:"host,omitempty" env:"HOST"` // monitored host name
}

// Send pushes one value. Nothing is sent when no server is configured.
func (z Log) Send(key, value string) error {
	if z.Server == "" {
		return nil
	}
	return exec.Command(Command,
		"-z", z.Server,
		"-s", z.Host,
		"-k", key,
		"-o", value).Run()
}

// Sent reports the number of submitted frames.
func (z Log) Sent(parts int) error {
	return z.Send(KeySent, strconv.Itoa(parts))
}

// Error reports a submission failure.
func (z Log) Error(err error) error {
	return z.Send(KeyError, err.Error())
}

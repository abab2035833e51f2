package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"pdusms/sms"
)

var (
	appName        = "PDUSMS"      // application name
	version        = "0.1.0"       // version
	date           = ""            // build date
	build          = ""            // build number in the git repository
	detailedLog    = false         // detailed log output
	logOutput      = os.Stderr     // version banner output
	configFileName = "config.yaml" // configuration file name
	to             string          // destination number
	text           string          // message text, stdin if empty
	flash          = false         // flash message
	report         = false         // request a delivery report
	dryRun         = false         // print frames without sending
)

func init() {
	flag.StringVar(&configFileName, "config", configFileName, "configuration `fileName`")
	flag.BoolVar(&detailedLog, "debug", detailedLog, "log output full messages")
	flag.StringVar(&to, "to", to, "destination `number`")
	flag.StringVar(&text, "text", text, "message `text`, read from stdin if empty")
	flag.BoolVar(&flash, "flash", flash, "send as flash message")
	flag.BoolVar(&report, "report", report, "request a delivery report")
	flag.BoolVar(&dryRun, "dry", dryRun, "print PDU frames instead of sending")
}

func main() {
	flag.Parse()
	fmt.Fprintf(logOutput, "### %s %s", appName, version)
	if build != "" {
		fmt.Fprintf(logOutput, " [#%s]", build)
	}
	if date != "" {
		fmt.Fprintf(logOutput, " (%s)", date)
	}
	fmt.Fprintln(logOutput)

	config, err := LoadConfig(configFileName)
	if errors.Is(err, fs.ErrNotExist) {
		config, err = ParseConfig(nil) // environment only
	}
	if err != nil {
		logrus.WithError(err).Fatal("Error loading config")
	}
	if err := config.Log.Apply(logrus.StandardLogger(), detailedLog); err != nil {
		logrus.WithError(err).Fatal("Error in log config")
	}

	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			logrus.WithError(err).Fatal("Error reading text")
		}
		text = strings.TrimRight(string(data), "\r\n")
	}
	msg := sms.OutgoingMessage{
		Number:         to,
		Text:           text,
		Flash:          flash,
		DeliveryReport: report,
	}

	gate, err := config.Open(dryRun)
	if err != nil {
		logrus.WithError(err).Fatal("Error opening gateway")
	}
	go func() {
		sig := monitorSignals(os.Interrupt, syscall.SIGTERM)
		logrus.WithField("signal", sig).Warning("Interrupted")
		gate.Close()
	}()
	sub, err := gate.Send(msg)
	gate.Close()
	if err != nil {
		logrus.WithError(err).Fatal("Error sending message")
	}
	if dryRun {
		for _, frame := range sub.Frames {
			fmt.Printf("%d %s\n", frame.TPDULength(), frame)
		}
		return
	}
	fmt.Println(sub.ID, sub.Refs)
}

// monitorSignals blocks until one of signals is received and returns it.
func monitorSignals(signals ...os.Signal) os.Signal {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, signals...)
	return <-signalChan
}

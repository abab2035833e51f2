package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pdusms/sms"
	"pdusms/sqlog"
)

// Submitter delivers frames to the network and returns their message
// references.
type Submitter interface {
	Send(frames []sms.Frame) ([]int, error)
}

// Journal stores submitted messages.
type Journal interface {
	Insert(rec sqlog.Record) error
}

// Monitor receives submission counters.
type Monitor interface {
	Sent(parts int) error
	Error(err error) error
}

// ErrDuplicate is returned for a text sent to the same number within the
// repeat window.
var ErrDuplicate = errors.New("duplicate message")

// Gateway encodes outgoing messages and submits them through the modem.
type Gateway struct {
	Encoder *sms.Encoder  // encoding policy
	Modem   Submitter     // frame delivery, nil for a dry run
	Journal Journal       // optional message log
	Monitor Monitor       // optional monitoring
	Repeat  time.Duration // drop repeated texts within this window
	Logger  *logrus.Entry // log output
	history History       // last message by number
}

// Submission describes one sent message.
type Submission struct {
	ID     string          // unique submission identifier
	Plan   sms.SegmentPlan // segmentation of the text
	Frames []sms.Frame     // encoded frames
	Refs   []int           // message references of the accepted frames
}

// Send encodes msg and submits its frames. Without a modem the frames are
// only encoded.
func (g *Gateway) Send(msg sms.OutgoingMessage) (*Submission, error) {
	logEntry := g.logger().WithField("to", msg.Number)
	if id, ok := g.history.Recent(msg.Number, msg.Text, g.Repeat); ok {
		logEntry.WithField("id", id).Warning("SMS repeated")
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	enc := g.Encoder
	if enc == nil {
		enc = new(sms.Encoder)
	}
	sub := &Submission{ID: uuid.New().String()}
	logEntry = logEntry.WithField("id", sub.ID)
	var err error
	sub.Plan, sub.Frames, err = enc.EncodeMessage(msg)
	if err != nil {
		g.failed(logEntry, msg, sub, err)
		return nil, fmt.Errorf("encode: %w", err)
	}
	logEntry = logEntry.WithFields(logrus.Fields{
		"alphabet": sub.Plan.Alphabet,
		"parts":    len(sub.Frames),
	})
	if g.Modem == nil {
		logEntry.Debug("SMS encoded")
		return sub, nil
	}
	logEntry.Debugf("SMS send text: %q", msg.Text)
	sub.Refs, err = g.Modem.Send(sub.Frames)
	if err != nil {
		g.failed(logEntry, msg, sub, err)
		return sub, fmt.Errorf("submit: %w", err)
	}
	logEntry.WithField("refs", sub.Refs).Info("SMS sent")
	g.history.Add(msg.Number, sub.ID, msg.Text)
	g.record(logEntry, msg, sub, false)
	if g.Monitor != nil {
		if err := g.Monitor.Sent(len(sub.Frames)); err != nil {
			logEntry.WithError(err).Warning("monitoring")
		}
	}
	return sub, nil
}

// Close releases the modem and the journal.
func (g *Gateway) Close() error {
	var errs []error
	for _, c := range []interface{}{g.Modem, g.Journal} {
		if closer, ok := c.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}

func (g *Gateway) failed(logEntry *logrus.Entry, msg sms.OutgoingMessage, sub *Submission, err error) {
	logEntry.WithError(err).Error("SMS send error")
	g.record(logEntry, msg, sub, true)
	if g.Monitor != nil {
		if err := g.Monitor.Error(err); err != nil {
			logEntry.WithError(err).Warning("monitoring")
		}
	}
}

func (g *Gateway) record(logEntry *logrus.Entry, msg sms.OutgoingMessage, sub *Submission, failed bool) {
	if g.Journal == nil {
		return
	}
	err := g.Journal.Insert(sqlog.Record{
		ID:       sub.ID,
		Called:   msg.Number,
		Text:     msg.Text,
		Alphabet: sub.Plan.Alphabet.String(),
		Parts:    len(sub.Frames),
		Ref:      sub.Plan.Ref,
		Refs:     sub.Refs,
		Failed:   failed,
	})
	if err != nil {
		logEntry.WithError(err).Warning("journal")
	}
}

func (g *Gateway) logger() *logrus.Entry {
	if g.Logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return g.Logger
}

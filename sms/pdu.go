package sms

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// maxUserData is the largest user data field of a frame, in octets.
const maxUserData = 140

// Frame is one SMS-SUBMIT frame in uppercase hex, prefixed with an empty
// service center address.
type Frame string

// String returns the hex form of the frame.
func (f Frame) String() string { return string(f) }

// Bytes returns the binary form of the frame.
func (f Frame) Bytes() ([]byte, error) {
	return hex.DecodeString(string(f))
}

// TPDULength returns the number of octets after the service center address.
// It is the length argument of AT+CMGS.
func (f Frame) TPDULength() int {
	return len(f)/2 - 1
}

// Encoder turns outgoing messages into frames. The zero value is ready to use:
// references are random, text is classified with the default policy and empty
// or unrepresentable text passes through.
type Encoder struct {
	Classifier  Classifier // alphabet detection
	Refs        RefSource  // concatenation references, RandomRef if nil
	MaxParts    int        // largest number of segments, 255 if zero
	RejectEmpty bool       // fail empty text with ErrEmptyMessage
	Strict      bool       // fail narrow text the packer would corrupt
}

var defaultEncoder = new(Encoder)

// Generate encodes msg with the default encoder.
func Generate(msg OutgoingMessage) ([]Frame, error) {
	return defaultEncoder.Generate(msg)
}

// Generate encodes msg into one frame per segment, in segment order.
func (e *Encoder) Generate(msg OutgoingMessage) ([]Frame, error) {
	_, frames, err := e.EncodeMessage(msg)
	return frames, err
}

// EncodeMessage is Generate that also returns the segment plan the frames were
// built from.
func (e *Encoder) EncodeMessage(msg OutgoingMessage) (SegmentPlan, []Frame, error) {
	if msg.Text == "" && e.RejectEmpty {
		return SegmentPlan{}, nil, ErrEmptyMessage
	}
	addr, err := EncodeAddress(msg.Number)
	if err != nil {
		return SegmentPlan{}, nil, err
	}
	alphabet := e.Classifier.Classify(msg.Text)
	if alphabet == Narrow && e.Strict {
		if err := CheckNarrow(msg.Text); err != nil {
			return SegmentPlan{}, nil, err
		}
	}
	plan, err := e.Plan(msg.Text, alphabet)
	if err != nil {
		return SegmentPlan{}, nil, err
	}

	dcs := DataCodingScheme(msg.Flash, alphabet)
	flags := Flags(plan.Segmented(), msg.DeliveryReport)
	frames := make([]Frame, 0, plan.Count)
	for _, segment := range plan.Segments {
		ud, err := Encode(alphabet, segment.Text)
		if err != nil {
			return plan, nil, fmt.Errorf("segment %d: %w", segment.Index, err)
		}
		udh := UserDataHeader(plan.Ref, segment.Index, plan.Count, alphabet)
		if len(udh)+len(ud) > maxUserData {
			return plan, nil, fmt.Errorf("%w: segment %d has %d octets",
				ErrUserDataTooLong, segment.Index, len(udh)+len(ud))
		}
		udl := UserDataLength(segment.Text, alphabet, plan.Segmented())

		pdu := make([]byte, 0, 16+len(udh)+len(ud))
		pdu = append(pdu, 0x00) // service center from the SIM
		pdu = append(pdu, flags, MessageReference(segment.Index))
		pdu = append(pdu, addr.Bytes()...)
		pdu = append(pdu, 0x00, dcs) // protocol identifier, no validity period
		pdu = append(pdu, byte(udl))
		pdu = append(pdu, udh...)
		pdu = append(pdu, ud...)
		frames = append(frames, Frame(strings.ToUpper(hex.EncodeToString(pdu))))
	}
	return plan, frames, nil
}

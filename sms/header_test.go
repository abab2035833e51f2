package sms

import (
	"bytes"
	"strings"
	"testing"
)

func TestFlags(t *testing.T) {
	for _, test := range []struct {
		segmented, report bool
		want              byte
	}{
		{false, false, 0x01},
		{true, false, 0x41},
		{false, true, 0x21},
		{true, true, 0x61},
	} {
		if got := Flags(test.segmented, test.report); got != test.want {
			t.Errorf("Flags(%v, %v) = %02X, want %02X", test.segmented, test.report, got, test.want)
		}
	}
}

func TestDataCodingScheme(t *testing.T) {
	for _, test := range []struct {
		flash    bool
		alphabet Alphabet
		want     byte
	}{
		{false, Narrow, 0x00},
		{false, Wide, 0x08},
		{true, Narrow, 0x10},
		{true, Wide, 0x18},
	} {
		if got := DataCodingScheme(test.flash, test.alphabet); got != test.want {
			t.Errorf("DataCodingScheme(%v, %v) = %02X, want %02X", test.flash, test.alphabet, got, test.want)
		}
	}
}

func TestUserDataHeader(t *testing.T) {
	if udh := UserDataHeader(0x2A, 1, 1, Narrow); udh != nil {
		t.Errorf("unsegmented header = % X", udh)
	}
	for _, test := range []struct {
		alphabet Alphabet
		index    int
		count    int
		want     []byte
	}{
		{Narrow, 1, 2, []byte{0x06, 0x08, 0x04, 0x00, 0x2A, 0x02, 0x01}},
		{Narrow, 3, 3, []byte{0x06, 0x08, 0x04, 0x00, 0x2A, 0x03, 0x03}},
		{Wide, 1, 3, []byte{0x05, 0x00, 0x03, 0x2A, 0x03, 0x01}},
		{Wide, 2, 2, []byte{0x05, 0x00, 0x03, 0x2A, 0x02, 0x02}},
	} {
		udh := UserDataHeader(0x2A, test.index, test.count, test.alphabet)
		if !bytes.Equal(udh, test.want) {
			t.Errorf("UserDataHeader(%v %d/%d) = % X, want % X",
				test.alphabet, test.index, test.count, udh, test.want)
		}
		if int(udh[0]) != len(udh)-1 {
			t.Errorf("header length %d does not match %d octets", udh[0], len(udh)-1)
		}
	}
}

func TestUserDataLength(t *testing.T) {
	for _, test := range []struct {
		text      string
		alphabet  Alphabet
		segmented bool
		want      int
	}{
		{"hello", Narrow, false, 5},
		{"", Narrow, false, 0},
		{strings.Repeat("a", 152), Narrow, true, 160},
		{"привет", Wide, false, 12},
		{strings.Repeat("ж", 67), Wide, true, 140},
		{"😀", Wide, false, 4},
	} {
		if got := UserDataLength(test.text, test.alphabet, test.segmented); got != test.want {
			t.Errorf("UserDataLength(%q, %v, %v) = %d, want %d",
				test.text, test.alphabet, test.segmented, got, test.want)
		}
	}
}

func TestMessageReference(t *testing.T) {
	for index, want := range map[int]byte{1: 0x00, 2: 0x01, 255: 0xFE} {
		if got := MessageReference(index); got != want {
			t.Errorf("MessageReference(%d) = %02X, want %02X", index, got, want)
		}
	}
}

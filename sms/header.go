package sms

import (
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

// Bits of the first octet of an SMS-SUBMIT frame.
const (
	flagSubmit         byte = 0x01 // message type indicator, SMS-SUBMIT
	flagStatusReport   byte = 0x20
	flagHeaderIndicate byte = 0x40
)

// Flags returns the first octet of a frame. Reply path, reject duplicates and
// the validity period format are always cleared.
func Flags(segmented, deliveryReport bool) byte {
	flags := flagSubmit
	if segmented {
		flags |= flagHeaderIndicate
	}
	if deliveryReport {
		flags |= flagStatusReport
	}
	return flags
}

// DataCodingScheme returns the coding scheme octet. The flash digit and the
// alphabet digit are joined as text and read back as a hex octet, so flash
// with the wide alphabet gives 0x18.
func DataCodingScheme(flash bool, alphabet Alphabet) byte {
	digits := "0"
	if flash {
		digits = "1"
	}
	digits += strconv.Itoa(int(alphabet))
	dcs, _ := strconv.ParseUint(digits, 16, 8)
	return byte(dcs)
}

// concatLayout describes the concatenation header of one alphabet.
type concatLayout struct {
	Length    byte // header length, not counting itself
	IEI       byte // information element identifier
	IEDL      byte // information element data length
	RefOctets int  // width of the reference field
	Overhead  int  // user data length added by the header, in alphabet units
}

// concatLayouts keeps the observed pairing: the narrow alphabet uses the
// 16-bit reference element and the wide alphabet the 8-bit one.
var concatLayouts = map[Alphabet]concatLayout{
	Narrow: {Length: 6, IEI: 0x08, IEDL: 4, RefOctets: 2, Overhead: 8},
	Wide:   {Length: 5, IEI: 0x00, IEDL: 3, RefOctets: 1, Overhead: 6},
}

// UserDataHeader returns the concatenation header for segment index of count.
// Unsegmented messages have no header and nil is returned.
func UserDataHeader(ref byte, index, count int, alphabet Alphabet) []byte {
	if count <= 1 {
		return nil
	}
	layout := concatLayouts[alphabet]
	udh := make([]byte, 0, int(layout.Length)+1)
	udh = append(udh, layout.Length, layout.IEI, layout.IEDL)
	if layout.RefOctets == 2 {
		udh = append(udh, 0x00)
	}
	return append(udh, ref, byte(count), byte(index))
}

// UserDataLength returns the user data length of a segment: septets for the
// narrow alphabet, octets for the wide one. The header overhead is included
// when segmented.
func UserDataLength(text string, alphabet Alphabet, segmented bool) int {
	var udl int
	switch alphabet {
	case Wide:
		udl = 2 * len(utf16.Encode([]rune(text)))
	default:
		udl = utf8.RuneCountInString(text)
	}
	if segmented {
		udl += concatLayouts[alphabet].Overhead
	}
	return udl
}

// MessageReference returns the per-frame reference of segment index.
func MessageReference(index int) byte {
	return byte(index - 1)
}

package sms

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Alphabet is the character set used for the user data of a frame.
type Alphabet uint8

const (
	Narrow Alphabet = 0 // 7-bit default alphabet
	Wide   Alphabet = 8 // 16-bit code units
)

// String returns the alphabet name.
func (a Alphabet) String() string {
	switch a {
	case Narrow:
		return "narrow"
	case Wide:
		return "wide"
	default:
		return "unknown"
	}
}

// Character budgets of a single and of a concatenated frame.
const (
	NarrowSingleLen = 160
	NarrowPartLen   = 152
	WideSingleLen   = 70
	WidePartLen     = 67
)

// singleLen returns the character budget of an unsegmented frame.
func singleLen(alphabet Alphabet) int {
	if alphabet == Wide {
		return WideSingleLen
	}
	return NarrowSingleLen
}

// partLen returns the character budget of one segment of a concatenated
// message.
func partLen(alphabet Alphabet) int {
	if alphabet == Wide {
		return WidePartLen
	}
	return NarrowPartLen
}

// IsASCII reports whether r is passed through by the narrow packer unchanged.
func IsASCII(r rune) bool {
	return r <= '\u007F'
}

// Classifier decides which alphabet a text is encoded with.
//
// With a nil Narrow predicate any text whose UTF-8 byte length differs from
// its character count is classified Wide. The check does not look at the GSM
// default table: characters such as 'é' are not detected per character, and a
// single multi-byte character switches the whole message to Wide.
type Classifier struct {
	Narrow func(r rune) bool // optional per-character membership test
}

// Classify returns the alphabet for text.
func (c Classifier) Classify(text string) Alphabet {
	if c.Narrow == nil {
		if len(text) != utf8.RuneCountInString(text) {
			return Wide
		}
		return Narrow
	}
	for _, r := range text {
		if !c.Narrow(r) {
			return Wide
		}
	}
	return Narrow
}

// Classify returns the alphabet for text using the default policy.
func Classify(text string) Alphabet {
	return Classifier{}.Classify(text)
}

// IsLong reports whether text does not fit into a single frame.
func IsLong(text string, alphabet Alphabet) bool {
	return utf8.RuneCountInString(text) > singleLen(alphabet)
}

// Unrepresentable returns the characters of text that the narrow packer would
// silently corrupt.
func Unrepresentable(text string) []rune {
	var runes []rune
	for _, r := range text {
		if !IsASCII(r) {
			runes = append(runes, r)
		}
	}
	return runes
}

// CheckNarrow returns an *UnrepresentableError if text can not be packed into
// the narrow alphabet as is.
func CheckNarrow(text string) error {
	if runes := Unrepresentable(text); len(runes) > 0 {
		return &UnrepresentableError{Runes: runes}
	}
	return nil
}

// Encode converts text into the user data octets of the given alphabet.
func Encode(alphabet Alphabet, text string) ([]byte, error) {
	switch alphabet {
	case Wide:
		enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
		es, _, err := transform.Bytes(enc, []byte(text))
		if err != nil {
			return nil, err
		}
		return swapCodeUnitBytes(es), nil
	default: // 7-bit codes are taken from the low bits, no table remapping
		septets := make([]byte, 0, len(text))
		for _, r := range text {
			septets = append(septets, byte(r)&0x7F)
		}
		return Pack(septets), nil
	}
}

// Decode converts user data octets back into text. For the narrow alphabet
// count is the number of septets; it is ignored for the wide one.
func Decode(alphabet Alphabet, data []byte, count int) (string, error) {
	switch alphabet {
	case Wide:
		dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		ds, _, err := transform.Bytes(dec, swapCodeUnitBytes(data))
		if err != nil {
			return "", err
		}
		return string(ds), nil
	default:
		return string(Unpack(data, count)), nil
	}
}

// Pack packs 7-bit units into octets with no gaps. Unit k starts at bit 7k of
// the stream, and stream bit b is bit b%8 of octet b/8. The last octet is
// zero padded.
func Pack(septets []byte) []byte {
	packed := make([]byte, (len(septets)*7+7)/8)
	for k, s := range septets {
		for bit := 0; bit < 7; bit++ {
			if s&(1<<bit) == 0 {
				continue
			}
			pos := 7*k + bit
			packed[pos/8] |= 1 << (pos % 8)
		}
	}
	return packed
}

// Unpack is the inverse of Pack. It returns at most count units.
func Unpack(packed []byte, count int) []byte {
	if max := len(packed) * 8 / 7; count > max {
		count = max
	}
	if count < 0 {
		count = 0
	}
	septets := make([]byte, count)
	for k := range septets {
		for bit := 0; bit < 7; bit++ {
			pos := 7*k + bit
			if packed[pos/8]&(1<<(pos%8)) != 0 {
				septets[k] |= 1 << bit
			}
		}
	}
	return septets
}

// swapCodeUnitBytes swaps the two bytes of every 2-byte code unit. A trailing
// odd byte is kept in place.
func swapCodeUnitBytes(data []byte) []byte {
	swapped := make([]byte, len(data))
	copy(swapped, data)
	for i := 0; i+1 < len(swapped); i += 2 {
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
	}
	return swapped
}

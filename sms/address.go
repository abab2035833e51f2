package sms

import (
	"fmt"
	"strings"
)

// TypeInternational is the type-of-address octet for an international number
// in the ISDN numbering plan.
const TypeInternational byte = 0x91

// maxAddressDigits is the largest number of digits the destination address
// field can carry.
const maxAddressDigits = 20

// Address is a destination number in semi-octet form.
type Address struct {
	Length byte   // number of digits, without padding
	Type   byte   // type of address
	Digits string // digits with swapped pairs, 'F' padded to even length
}

// String returns the hex form of the address: length, type and digits.
func (a Address) String() string {
	return fmt.Sprintf("%02X%02X%s", a.Length, a.Type, a.Digits)
}

// Bytes returns the binary form of the address.
func (a Address) Bytes() []byte {
	b := make([]byte, 2, 2+len(a.Digits)/2)
	b[0], b[1] = a.Length, a.Type
	for i := 0; i+1 < len(a.Digits); i += 2 {
		b = append(b, nibble(a.Digits[i])<<4|nibble(a.Digits[i+1]))
	}
	return b
}

// EncodeAddress strips everything but digits from number and encodes the rest
// as swapped nibble pairs. The type of address is always international.
func EncodeAddress(number string) (Address, error) {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	count := digits.Len()
	if count == 0 || count > maxAddressDigits {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidNumber, number)
	}
	if count%2 != 0 {
		digits.WriteByte('F') // filler
	}
	swapped := []byte(digits.String())
	for i := 0; i < len(swapped); i += 2 {
		swapped[i], swapped[i+1] = swapped[i+1], swapped[i]
	}
	return Address{
		Length: byte(count),
		Type:   TypeInternational,
		Digits: string(swapped),
	}, nil
}

// nibble returns the value of one hex digit of an encoded address.
func nibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0xF
	}
}

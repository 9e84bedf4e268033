// Package upc implements UPC-A checksum validation.
package upc

import "strings"

// Length is the number of digits in a UPC-A code.
const Length = 12

// CheckDigit computes the check digit for the first 11 digits of a UPC-A
// code. ok is false if the input is not exactly 11 ASCII digits.
func CheckDigit(first11 string) (digit int, ok bool) {
	if len(first11) != Length-1 {
		return 0, false
	}

	oddSum := 0
	evenSum := 0
	for i := 0; i < len(first11); i++ {
		c := first11[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := int(c - '0')
		if i%2 == 0 {
			oddSum += d
		} else {
			evenSum += d
		}
	}

	total := oddSum*3 + evenSum
	return (10 - total%10) % 10, true
}

// IsValid reports whether code is a 12 digit UPC-A with a correct check digit.
func IsValid(code string) bool {
	if len(code) != Length {
		return false
	}
	check, ok := CheckDigit(code[:Length-1])
	if !ok {
		return false
	}
	last := code[Length-1]
	if last < '0' || last > '9' {
		return false
	}
	return check == int(last-'0')
}

// Pad14 left pads a code with zeros to 14 characters (GTIN-14 width).
func Pad14(code string) string {
	if len(code) >= 14 {
		return code
	}
	return strings.Repeat("0", 14-len(code)) + code
}

// Package unitcode encodes a rental unit's property, floor and position on that
// floor into a 10-digit display number with two trailing check digits.
//
// A unit number is laid out as PPPP-F-SSS-CC:
//
//	PPPP  4-digit hash of the property identifier (1000-9999)
//	F     floor number modulo 10
//	SSS   1-based position of the unit on its floor, modulo 1000
//	CC    Luhn check digit followed by a plain digit-sum check digit
//
// The property hash is one-way and may collide across properties, so a unit
// number only identifies a unit together with the store that issued it.
package unitcode

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

const (
	// Length is the number of digits in a unit number.
	Length = 10
	// MaxUnitIndex is the largest unit index representable without wrapping.
	MaxUnitIndex = 999

	baseLength = 8
)

// Parsed holds the fields recovered from a unit number.
type Parsed struct {
	PropertyHash string `json:"property_hash"`
	FloorNumber  int    `json:"floor_number"`
	UnitIndex    int    `json:"unit_index"`
	IsValid      bool   `json:"is_valid"`
}

// PropertyHash reduces a property identifier to its 4-digit prefix.
// Hyphens are ignored so a UUID hashes the same with or without separators.
func PropertyHash(propertyID string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(strings.ReplaceAll(propertyID, "-", ""))) {
		h = h*31 + int32(c)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return strconv.FormatInt(abs%9000+1000, 10)
}

// FloorDigit returns the floor number modulo 10 in the range [0, 9].
// Floors 5, 15 and -5 all map to the same digit.
func FloorDigit(floor int) int {
	return ((floor % 10) + 10) % 10
}

// UnitSequence returns the last three digits of unitIndex, zero padded.
func UnitSequence(unitIndex int) string {
	seq := ((unitIndex % 1000) + 1000) % 1000
	s := strconv.Itoa(seq)
	return strings.Repeat("0", 3-len(s)) + s
}

// Generate builds the unit number for the unitIndex-th unit on a floor of a property.
func Generate(propertyID string, floor, unitIndex int) string {
	base := PropertyHash(propertyID) + strconv.Itoa(FloorDigit(floor)) + UnitSequence(unitIndex)
	return base + CalculateCheckDigits(base)
}

// CalculateCheckDigits computes the two check digits for an 8-digit base.
// The caller must pass decimal digits only.
func CalculateCheckDigits(base string) string {
	luhn, plain := 0, 0
	double := false
	for i := len(base) - 1; i >= 0; i-- {
		d := int(base[i] - '0')
		plain += d
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		luhn += d
		double = !double
	}
	return strconv.Itoa((10-luhn%10)%10) + strconv.Itoa(plain%10)
}

// Validate reports whether code is a well-formed unit number with matching check digits.
func Validate(code string) bool {
	if len(code) != Length || !isDigits(code) {
		return false
	}
	return CalculateCheckDigits(code[:baseLength]) == code[baseLength:]
}

// Parse splits code into its fields. Input of the wrong length yields a zero
// Parsed; fields that are not numeric are left at zero.
func Parse(code string) Parsed {
	if len(code) != Length {
		return Parsed{}
	}
	p := Parsed{PropertyHash: code[:4]}
	if d := code[4]; d >= '0' && d <= '9' {
		p.FloorNumber = int(d - '0')
	}
	if seq := code[5:baseLength]; isDigits(seq) {
		p.UnitIndex, _ = strconv.Atoi(seq)
	}
	p.IsValid = Validate(code)
	return p
}

// Format renders a unit number as XXXX-X-XXX-XX. Anything that is not
// exactly Length characters long is returned unchanged.
func Format(code string) string {
	if len(code) != Length {
		return code
	}
	return code[:4] + "-" + code[4:5] + "-" + code[5:baseLength] + "-" + code[baseLength:]
}

// Normalize strips the separators a person may type or copy from a formatted
// unit number. It does not validate the result.
func Normalize(input string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(input))
}

// GenerateSequential returns count unit numbers for indexes startIndex through
// startIndex+count-1, in order. Indexes past MaxUnitIndex wrap and repeat earlier numbers.
func GenerateSequential(propertyID string, floor, count, startIndex int) []string {
	if count <= 0 {
		return []string{}
	}
	codes := make([]string, 0, count)
	for i := 0; i < count; i++ {
		codes = append(codes, Generate(propertyID, floor, startIndex+i))
	}
	return codes
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Package barcode classifies and normalizes decoded barcode strings before
// they are resolved against the drug database.
package barcode

import (
	"fmt"
	"regexp"
	"strings"
)

// Format is the symbology inferred from a decoded string's shape.
type Format string

const (
	FormatUPCA    Format = "upc_a"
	FormatUPCE    Format = "upc_e"
	FormatEAN8    Format = "ean_8"
	FormatEAN13   Format = "ean_13"
	FormatCode128 Format = "code_128"
	FormatCode39  Format = "code_39"
	FormatQR      Format = "qr_code"
)

var (
	digitsRe = regexp.MustCompile(`^\d+$`)
	code39Re = regexp.MustCompile(`^[A-Z0-9 \-.$/+%]+$`)
)

// Parsed holds the classified and normalized form of a decoded string.
// For UPC-E the normalized value is the expanded 12-digit UPC-A equivalent;
// for other digit symbologies it is the digit string itself.
type Parsed struct {
	Format     Format
	Normalized string
}

// Parse classifies a decoded barcode string and validates its check digit
// where the symbology defines one.
func Parse(raw string) (Parsed, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Parsed{}, fmt.Errorf("empty barcode value")
	}

	if digitsRe.MatchString(s) {
		switch len(s) {
		case 8:
			// Eight digits starting with 0 or 1 are UPC-E; otherwise EAN-8.
			if s[0] == '0' || s[0] == '1' {
				expanded, err := expandUPCE(s)
				if err != nil {
					return Parsed{}, err
				}
				return Parsed{Format: FormatUPCE, Normalized: expanded}, nil
			}
			if !checkDigitValid(s) {
				return Parsed{}, fmt.Errorf("invalid EAN-8 check digit in %q", raw)
			}
			return Parsed{Format: FormatEAN8, Normalized: s}, nil
		case 12:
			if !checkDigitValid(s) {
				return Parsed{}, fmt.Errorf("invalid UPC-A check digit in %q", raw)
			}
			return Parsed{Format: FormatUPCA, Normalized: s}, nil
		case 13:
			if !checkDigitValid(s) {
				return Parsed{}, fmt.Errorf("invalid EAN-13 check digit in %q", raw)
			}
			return Parsed{Format: FormatEAN13, Normalized: s}, nil
		default:
			// Numeric content of other lengths carries no check digit.
			return Parsed{Format: FormatCode128, Normalized: s}, nil
		}
	}

	if code39Re.MatchString(s) {
		return Parsed{Format: FormatCode39, Normalized: s}, nil
	}

	// Anything else is free-form QR content.
	return Parsed{Format: FormatQR, Normalized: s}, nil
}

// checkDigitValid validates the trailing mod-10 check digit shared by UPC-A,
// EAN-8, and EAN-13: weights alternate 3,1 moving left from the digit
// immediately before the check digit.
func checkDigitValid(code string) bool {
	sum := 0
	weight := 3
	for i := len(code) - 2; i >= 0; i-- {
		sum += int(code[i]-'0') * weight
		weight = 4 - weight // alternate 3 and 1
	}
	check := (10 - sum%10) % 10
	return check == int(code[len(code)-1]-'0')
}

// expandUPCE expands an 8-digit UPC-E value to its 12-digit UPC-A
// equivalent and validates the check digit against the expansion.
func expandUPCE(code string) (string, error) {
	system := code[0]
	body := code[1:7]
	check := code[7]

	var manufacturer, product string
	switch body[5] {
	case '0', '1', '2':
		manufacturer = body[0:2] + string(body[5]) + "00"
		product = "00" + body[2:5]
	case '3':
		manufacturer = body[0:3] + "00"
		product = "000" + body[3:5]
	case '4':
		manufacturer = body[0:4] + "0"
		product = "0000" + string(body[4])
	default:
		manufacturer = body[0:5]
		product = "0000" + string(body[5])
	}

	expanded := string(system) + manufacturer + product + string(check)
	if !checkDigitValid(expanded) {
		return "", fmt.Errorf("invalid UPC-E check digit in %q", code)
	}
	return expanded, nil
}

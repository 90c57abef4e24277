package utils

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// PhoneRegion is the default region used when a number carries no country code.
const PhoneRegion = "IQ"

var ErrInvalidPhone = errors.New("phone number is invalid")

// Phone is a validated number in the two forms the system uses: the
// national form stored on user rows ("07701234567") and the international
// digits the SMS provider expects ("9647701234567").
type Phone struct {
	National      string
	International string
}

// NormalizePhone parses raw as an Iraqi number, accepting "+964", "00964",
// "0" prefixed or bare national digits, and rejects anything that is not a
// valid number for the region.
func NormalizePhone(raw string) (Phone, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Phone{}, ErrInvalidPhone
	}
	num, err := phonenumbers.Parse(raw, PhoneRegion)
	if err != nil {
		return Phone{}, ErrInvalidPhone
	}
	if !phonenumbers.IsPossibleNumber(num) || !phonenumbers.IsValidNumberForRegion(num, PhoneRegion) {
		return Phone{}, ErrInvalidPhone
	}
	nsn := phonenumbers.GetNationalSignificantNumber(num)
	return Phone{
		National:      "0" + nsn,
		International: "964" + nsn,
	}, nil
}

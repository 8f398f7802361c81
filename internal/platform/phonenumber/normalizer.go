package phonenumber

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Normalizer turns user supplied numbers into "<calling code><national number>"
// strings using libphonenumber metadata.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize parses number in the region owning callingCode and returns the
// international form. ok is false when the number is not valid for that region.
func (n *Normalizer) Normalize(number, callingCode string) (string, bool) {
	cc, err := strconv.Atoi(strings.TrimPrefix(callingCode, "+"))
	if err != nil {
		return "", false
	}
	region := phonenumbers.GetRegionCodeForCountryCode(cc)
	if region == "" || region == "ZZ" {
		return "", false
	}

	num, err := phonenumbers.Parse(strings.TrimPrefix(number, "+"), region)
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumberForRegion(num, region) {
		return "", false
	}
	return fmt.Sprintf("%d%d", num.GetCountryCode(), num.GetNationalNumber()), true
}

// CallingCodeOf extracts the country calling code from an international
// number ("+14155550100" -> "1").
func (n *Normalizer) CallingCodeOf(number string) (string, bool) {
	if !strings.HasPrefix(number, "+") {
		number = "+" + number
	}
	num, err := phonenumbers.Parse(number, "")
	if err != nil || num.GetCountryCode() == 0 {
		return "", false
	}
	return strconv.Itoa(int(num.GetCountryCode())), true
}

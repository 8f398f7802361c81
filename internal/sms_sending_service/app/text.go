package app

import (
	"strings"
	"unicode"

	"github.com/aradsms/sms_engine/internal/sms_sending_service/domain"
	"github.com/aradsms/sms_engine/internal/sms_sending_service/provider"
)

const (
	maxTextLength      = 724
	maxSenderIDLength  = 11
	multipartGSMLimit  = 152
	unicodePartLimit   = 70
	singleGSMPartLimit = 160
)

// replacements map typographic and accented characters to GSM equivalents.
// They only apply when the caller did not ask for unicode.
var replacements = strings.NewReplacer(
	"“", `"`, "”", `"`, "’", "'", "‘", "'",
	"Ç", "C", "ç", "c", "Ğ", "G", "ğ", "g", "Ş", "S", "ş", "s",
	"Ö", "O", "ö", "o", "Ü", "U", "ü", "u",
	"è", "e", "ć", "c", "ę", "e", "ł", "l", "ń", "n", "ó", "o",
)

var escapedQuotes = strings.NewReplacer(`\'`, "'", `\"`, `"`)

// FormattedText is a message ready for a provider.
type FormattedText struct {
	Text     string
	Encoding int
	Parts    int
}

// FormatText cleans text, picks its encoding and counts billable parts.
// requested is the caller's encoding (0 when unspecified).
func FormatText(text string, requested int) (FormattedText, error) {
	text = escapedQuotes.Replace(text)
	if requested != domain.EncodingUnicode {
		text = replacements.Replace(text)
	}

	encoding := domain.EncodingUnicode
	if provider.IsGSM(text) {
		encoding = domain.EncodingGSM
	}

	parts, err := countParts(text, encoding)
	if err != nil {
		return FormattedText{}, err
	}
	return FormattedText{Text: text, Encoding: encoding, Parts: parts}, nil
}

func countParts(text string, encoding int) (int, error) {
	if text == "" {
		return 0, domain.ErrInvalidSMSText
	}
	length := len([]rune(text))
	for _, r := range text {
		if strings.ContainsRune(`{}~[]|^\`, r) {
			length++
		}
	}
	if length > maxTextLength {
		return 0, domain.ErrInvalidSMSText
	}

	limit := multipartGSMLimit
	switch {
	case encoding == domain.EncodingUnicode:
		limit = unicodePartLimit
	case length <= singleGSMPartLimit:
		limit = singleGSMPartLimit
	}
	return (length + limit - 1) / limit, nil
}

// TruncateSenderID trims alphanumeric sender ids to 11 characters. Numeric
// ids are kept whole.
func TruncateSenderID(senderID string) string {
	senderID = strings.TrimSpace(senderID)
	if isDigits(senderID) {
		return senderID
	}
	if r := []rune(senderID); len(r) > maxSenderIDLength {
		return string(r[:maxSenderIDLength])
	}
	return senderID
}

// FormatMobile keeps the digits of number and adds "+" to anything longer
// than a national number.
func FormatMobile(number string) string {
	digits := DigitsOnly(number)
	if len(digits) > 10 {
		return "+" + digits
	}
	return digits
}

// NumericNumber is the digits of number without leading zeros.
func NumericNumber(number string) string {
	return strings.TrimLeft(DigitsOnly(number), "0")
}

func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

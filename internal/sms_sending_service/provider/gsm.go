package provider

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf16"
)

const (
	GSMSingleLimit      = 160
	GSMMultipartLimit   = 153
	UCS2SingleLimit     = 70
	UCS2MultipartLimit  = 67
	UCS2HexSingleLimit  = 168
	UCS2HexPartLimit    = 168
	hexCharsPerUCS2Unit = 4
)

// gsmBasic is the GSM 03.38 default alphabet.
const gsmBasic = "@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞ\x1bÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?" +
	"¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà"

// gsmExtended characters take an escape septet plus their own.
const gsmExtended = "^{}\\[~]|€\f"

func isGSMExtended(r rune) bool {
	return strings.ContainsRune(gsmExtended, r)
}

// IsGSM reports whether every rune of text is in the GSM 03.38 alphabet.
func IsGSM(text string) bool {
	for _, r := range text {
		if !strings.ContainsRune(gsmBasic, r) && !isGSMExtended(r) {
			return false
		}
	}
	return true
}

// GSMLength is the septet count of text; extended characters count twice.
func GSMLength(text string) int {
	n := 0
	for _, r := range text {
		n++
		if isGSMExtended(r) {
			n++
		}
	}
	return n
}

// SplitParts cuts text into the segments a handset will reassemble. GSM text
// never splits between an escape and its extended character.
func SplitParts(text string, unicode bool) []string {
	if unicode {
		runes := []rune(text)
		if len(runes) <= UCS2SingleLimit {
			return []string{text}
		}
		var parts []string
		for start := 0; start < len(runes); start += UCS2MultipartLimit {
			end := start + UCS2MultipartLimit
			if end > len(runes) {
				end = len(runes)
			}
			parts = append(parts, string(runes[start:end]))
		}
		return parts
	}

	if GSMLength(text) <= GSMSingleLimit {
		return []string{text}
	}
	var (
		parts []string
		cur   strings.Builder
		used  int
	)
	for _, r := range text {
		w := 1
		if isGSMExtended(r) {
			w = 2
		}
		if used+w > GSMMultipartLimit {
			parts = append(parts, cur.String())
			cur.Reset()
			used = 0
		}
		cur.WriteRune(r)
		used += w
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// UCS2Hex encodes text as big-endian UTF-16 in lowercase hex.
func UCS2Hex(text string) string {
	units := utf16.Encode([]rune(text))
	buf := make([]byte, 0, len(units)*2)
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return hex.EncodeToString(buf)
}

// SplitHex cuts UCS-2 hex text into parts of at most limit hex chars,
// never inside a code unit.
func SplitHex(hexText string, single, limit int) []string {
	if len(hexText) <= single {
		return []string{hexText}
	}
	limit -= limit % hexCharsPerUCS2Unit
	var parts []string
	for start := 0; start < len(hexText); start += limit {
		end := start + limit
		if end > len(hexText) {
			end = len(hexText)
		}
		parts = append(parts, hexText[start:end])
	}
	return parts
}

// UDH builds the concatenation header 05 00 03 <ref> <total> <index> in hex.
func UDH(ref byte, total, index int) string {
	return fmt.Sprintf("050003%02X%02X%02X", ref, byte(total), byte(index))
}

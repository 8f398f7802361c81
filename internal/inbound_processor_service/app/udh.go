package app

import (
	"encoding/hex"
	"strings"

	"github.com/aradsms/sms_engine/internal/inbound_processor_service/domain"
)

// Concatenation information elements of a user data header.
const (
	ieiConcat8Bit  = 0x00
	ieiConcat16Bit = 0x08
)

// decodeUDH reads reference, total and sequence number from a hex encoded
// user data header ("050003CC0201" is part 1 of 2, reference 0xCC).
func decodeUDH(udh string) (ref, total, part int, err error) {
	b, decodeErr := hex.DecodeString(strings.TrimSpace(udh))
	if decodeErr != nil || len(b) < 2 {
		return 0, 0, 0, domain.ErrInvalidMultipart
	}
	end := 1 + int(b[0])
	if end > len(b) {
		return 0, 0, 0, domain.ErrInvalidMultipart
	}

	for i := 1; i+1 < end; {
		iei, length := b[i], int(b[i+1])
		data := i + 2
		if data+length > end {
			break
		}
		switch {
		case iei == ieiConcat8Bit && length == 3:
			ref, total, part = int(b[data]), int(b[data+1]), int(b[data+2])
		case iei == ieiConcat16Bit && length == 4:
			ref, total, part = int(b[data])<<8|int(b[data+1]), int(b[data+2]), int(b[data+3])
		default:
			i = data + length
			continue
		}
		if total < 1 || part < 1 || part > total {
			return 0, 0, 0, domain.ErrInvalidMultipart
		}
		return ref, total, part, nil
	}
	return 0, 0, 0, domain.ErrInvalidMultipart
}

package usecases

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// EMV BR Code field IDs used by PIX static payloads.
const (
	pixGUI         = "br.gov.bcb.pix"
	pixDefaultTxid = "***"

	// Subfield 01 maximum. Also keeps the enclosing account TLV length
	// at two digits, the most a TLV header can encode.
	pixMaxKeyLen = 77
)

// BuildPixPayload assembles a static PIX "copia e cola" payload (EMV
// TLV per the Banco Central BR Code spec) for the given key and amount.
// amountCents <= 0 produces an open-amount code.
func BuildPixPayload(key, merchantName, merchantCity, txid string, amountCents int64) string {
	if txid == "" {
		txid = pixDefaultTxid
	}

	var b strings.Builder
	b.WriteString(tlv("00", "01")) // payload format indicator

	account := tlv("00", pixGUI) + tlv("01", truncate(key, pixMaxKeyLen))
	b.WriteString(tlv("26", account)) // merchant account information

	b.WriteString(tlv("52", "0000")) // merchant category code
	b.WriteString(tlv("53", "986"))  // BRL
	if amountCents > 0 {
		b.WriteString(tlv("54", fmt.Sprintf("%d.%02d", amountCents/100, amountCents%100)))
	}
	b.WriteString(tlv("58", "BR"))
	b.WriteString(tlv("59", truncate(merchantName, 25)))
	b.WriteString(tlv("60", truncate(merchantCity, 15)))
	b.WriteString(tlv("62", tlv("05", truncate(txid, 25))))

	// CRC covers the whole payload including its own "6304" header.
	payload := b.String() + "6304"
	return payload + fmt.Sprintf("%04X", crc16CCITT(payload))
}

func tlv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// truncate caps s at max bytes (EMV lengths count bytes) without
// cutting through a multibyte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// crc16CCITT computes CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF),
// the checksum mandated by the BR Code spec.
func crc16CCITT(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

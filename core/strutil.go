package core

// Number formatting for debug output without the fmt package

// utoa converts an unsigned integer to decimal
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

const hexDigits = "0123456789abcdef"

// hex8 formats a byte as 0xNN
func hex8(b uint8) string {
	return string([]byte{'0', 'x', hexDigits[b>>4], hexDigits[b&0x0F]})
}

// hex32 formats a value as 0x followed by the minimum number of byte pairs
func hex32(v uint32) string {
	digits := 2
	for digits < 8 && v>>(4*uint(digits)) != 0 {
		digits += 2
	}
	buf := make([]byte, 2+digits)
	buf[0], buf[1] = '0', 'x'
	for i := 0; i < digits; i++ {
		buf[len(buf)-1-i] = hexDigits[(v>>(4*uint(i)))&0x0F]
	}
	return string(buf)
}

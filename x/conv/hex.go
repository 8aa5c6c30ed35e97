package conv

const hexd = "0123456789ABCDEF"

// AppendHex appends n as uppercase hex with "0x" prefix, zero-padded to
// digits nibbles.
func AppendHex(dst []byte, n uint64, digits int) []byte {
	var buf [16]byte
	if digits < 1 {
		digits = 1
	}
	if digits > len(buf) {
		digits = len(buf)
	}
	i := len(buf)
	for j := 0; j < digits || n != 0; j++ {
		if i == 0 {
			break
		}
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	dst = append(dst, '0', 'x')
	return append(dst, buf[i:]...)
}

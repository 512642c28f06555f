package drain

import "strconv"

// Separator joins channel samples on a line.
const Separator = " -- "

// AppendLine appends samples as five-digit zero-padded decimals joined by
// Separator.
func AppendLine(dst []byte, samples []uint16) []byte {
	for i, v := range samples {
		if i > 0 {
			dst = append(dst, Separator...)
		}
		for pad := 10000; pad > 1 && int(v) < pad; pad /= 10 {
			dst = append(dst, '0')
		}
		dst = strconv.AppendUint(dst, uint64(v), 10)
	}
	return dst
}

func FormatLine(samples []uint16) string {
	return string(AppendLine(make([]byte, 0, len(samples)*9), samples))
}

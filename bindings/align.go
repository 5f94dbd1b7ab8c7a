package bindings

import "unicode/utf16"

// Alignment is the wire alignment of every struct, array and string body.
const Alignment = 8

// Align rounds size up to the next multiple of Alignment.
func Align(size int) int {
	return (size + Alignment - 1) &^ (Alignment - 1)
}

// AlignTo rounds size up to the next multiple of alignment, which must be a
// power of two.
func AlignTo(size, alignment int) int {
	return (size + alignment - 1) &^ (alignment - 1)
}

// UTF8ByteLength returns how many bytes text occupies once encoded as UTF-8.
// Surrogate pairs count as one code point; any other unit, a lone surrogate
// included, is sized by its own value.
func UTF8ByteLength(text []uint16) int {
	n := 0
	for i := 0; i < len(text); i++ {
		cp := rune(text[i])
		if utf16.IsSurrogate(cp) && i+1 < len(text) {
			if r := utf16.DecodeRune(cp, rune(text[i+1])); r != 0xFFFD {
				cp = r
				i++
			}
		}
		n += utf8RunLength(cp)
	}
	return n
}

func utf8RunLength(cp rune) int {
	switch {
	case cp < 0x80:
		return 1
	case cp < 0x800:
		return 2
	case cp < 0x10000:
		return 3
	case cp < 0x200000:
		return 4
	case cp < 0x4000000:
		return 5
	default:
		return 6
	}
}

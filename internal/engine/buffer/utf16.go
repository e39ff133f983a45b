package buffer

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	count := 0
	for _, r := range s {
		if r >= 0x10000 {
			count += 2 // surrogate pair
		} else {
			count++
		}
	}
	return count
}

// utf16ToByte converts a UTF-16 offset within s to a byte offset. Offsets
// past the end yield len(s); an offset inside a surrogate pair yields the
// byte offset after the pair.
func utf16ToByte(s string, utf16Off int) int {
	if utf16Off <= 0 {
		return 0
	}

	count := 0
	for i, r := range s {
		if count >= utf16Off {
			return i
		}
		if r >= 0x10000 {
			count += 2
		} else {
			count++
		}
	}
	return len(s)
}

// byteToUTF16 converts a byte offset within s to a UTF-16 offset.
func byteToUTF16(s string, byteOff int) int {
	if byteOff <= 0 {
		return 0
	}
	if byteOff >= len(s) {
		return utf16Len(s)
	}

	off := 0
	for i, r := range s {
		if i >= byteOff {
			break
		}
		if r >= 0x10000 {
			off += 2
		} else {
			off++
		}
	}
	return off
}

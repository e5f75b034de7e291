package archive

import "fmt"

// sentinel32 is the all-ones pattern a 32-bit size or offset field carries
// when its true value lives in the zip64 extended-information subfield.
const sentinel32 = ^uint32(0)

// resolveExtra returns the 64-bit (uncompressed, compressed, header offset)
// triple for a central directory record. A 32-bit field that is not the
// sentinel is authoritative as-is; sentinel fields are overridden from the
// zip64 subfield, whose values appear in a fixed order but only for the
// fields that actually need them.
func resolveExtra(extra []byte, uncompressed, compressed, headerOffset uint32) (uint64, uint64, uint64, error) {
	u := uint64(uncompressed)
	c := uint64(compressed)
	off := uint64(headerOffset)

	needU := uncompressed == sentinel32
	needC := compressed == sentinel32
	needOff := headerOffset == sentinel32
	if !needU && !needC && !needOff {
		return u, c, off, nil
	}

	for b := readBuf(extra); len(b) >= 4; {
		tag := b.uint16()
		size := int(b.uint16())
		if size > len(b) {
			break
		}
		field := b.sub(size)
		if tag != zip64ExtraID {
			continue
		}
		if needU {
			if len(field) < 8 {
				return 0, 0, 0, shortExtra(extra)
			}
			u = field.uint64()
			needU = false
		}
		if needC {
			if len(field) < 8 {
				return 0, 0, 0, shortExtra(extra)
			}
			c = field.uint64()
			needC = false
		}
		if needOff {
			if len(field) < 8 {
				return 0, 0, 0, shortExtra(extra)
			}
			off = field.uint64()
			needOff = false
		}
		break
	}

	if needU || needC || needOff {
		return 0, 0, 0, shortExtra(extra)
	}
	return u, c, off, nil
}

func shortExtra(extra []byte) error {
	return fmt.Errorf("%w: %d-byte extra field cannot satisfy the sentinel overrides", ErrMalformedExtra, len(extra))
}

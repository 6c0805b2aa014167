package codec

import "math"

// coerceToInt64 accepts any Go integer type so callers can build value trees
// with untyped constants.
func coerceToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v), true
		}
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	}
	return 0, false
}

// scalarFits reports whether v is representable in a scalar of the given
// byte width and signedness.
func scalarFits(v int64, width uint32, signed bool) bool {
	bits := width * 8
	if signed {
		min := int64(-1) << (bits - 1)
		max := int64(1)<<(bits-1) - 1
		return v >= min && v <= max
	}
	if v < 0 {
		return false
	}
	max := int64(1)<<bits - 1
	return v <= max
}

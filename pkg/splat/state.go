package splat

// Per-splat state flags.
const (
	StateDeleted  uint8 = 1 << 0
	StateSelected uint8 = 1 << 1
	StateLocked   uint8 = 1 << 2
)

// IsDeleted reports whether the deleted bit is set.
func IsDeleted(state uint8) bool {
	return state&StateDeleted != 0
}

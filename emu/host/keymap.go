package host

import (
	"fmt"
	"image/color"
)

// Keymap is a fixed two-way table between physical keys of some input
// device and the 16 logical keypad keys. Build it once at startup.
type Keymap[K comparable] struct {
	toLogical  map[K]uint8
	toPhysical [16]K
}

// NewKeymap takes layout[i] as the physical key for logical key i. Every
// physical key must be distinct.
func NewKeymap[K comparable](layout [16]K) (*Keymap[K], error) {
	km := &Keymap[K]{
		toLogical:  make(map[K]uint8, len(layout)),
		toPhysical: layout,
	}
	for i, k := range layout {
		if prev, dup := km.toLogical[k]; dup {
			return nil, fmt.Errorf("keymap: %v bound to both %X and %X", k, prev, i)
		}
		km.toLogical[k] = uint8(i)
	}
	return km, nil
}

// Logical returns the keypad key bound to k.
func (km *Keymap[K]) Logical(k K) (uint8, bool) {
	key, ok := km.toLogical[k]
	return key, ok
}

// Physical returns the device key bound to keypad key (0x0-0xF).
func (km *Keymap[K]) Physical(key uint8) K {
	return km.toPhysical[key&0xF]
}

// Mask builds a keypad bitfield from a held-key predicate.
func (km *Keymap[K]) Mask(held func(K) bool) uint16 {
	var mask uint16
	for i, k := range km.toPhysical {
		if held(k) {
			mask |= 1 << i
		}
	}
	return mask
}

// RGBA unpacks a r<<24|g<<16|b<<8|a cell value.
func RGBA(c uint32) color.RGBA {
	return color.RGBA{R: uint8(c >> 24), G: uint8(c >> 16), B: uint8(c >> 8), A: uint8(c)}
}

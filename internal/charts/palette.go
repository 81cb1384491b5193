package charts

import "image/color"

// colorFor picks the stroke and fill for one run variant.
type colorFor int

const (
	cleanColor colorFor = iota
	blockedColor
)

func (c colorFor) stroke() color.Color {
	if c == blockedColor {
		return blockedRed
	}
	return cleanBlue
}

// translucent is the stroke at roughly 40% opacity, premultiplied.
func (c colorFor) translucent() color.Color {
	base := cleanBlue
	if c == blockedColor {
		base = blockedRed
	}
	const a = 0x66
	return color.RGBA{
		R: uint8(uint16(base.R) * a / 0xFF),
		G: uint8(uint16(base.G) * a / 0xFF),
		B: uint8(uint16(base.B) * a / 0xFF),
		A: a,
	}
}

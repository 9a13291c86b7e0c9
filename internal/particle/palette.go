package particle

// RGB is an opaque 8-bit colour.
type RGB struct {
	R, G, B uint8
}

// Particle colours per resolved theme.
var (
	LightColor = RGB{R: 59, G: 130, B: 246}  // primary-500
	DarkColor  = RGB{R: 147, G: 197, B: 253} // primary-300
)

// Palette returns the particle colour for a dark or light background.
func Palette(dark bool) RGB {
	if dark {
		return DarkColor
	}
	return LightColor
}

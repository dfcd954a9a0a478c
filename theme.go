package parley

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the
// transcript automatically matches any color scheme.
type Theme struct {
	ClientMsg  int // client message accent
	Assistant  int // assistant message text
	Supervisor int // supervisor reviewer accent
	System     int // interim markers, status lines
	Error      int // error-fallback messages
	Muted      int // timestamps, placeholders
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		ClientMsg:  4,
		Assistant:  7,
		Supervisor: 5,
		System:     3,
		Error:      1,
		Muted:      8,
	}
}

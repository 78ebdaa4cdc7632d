// internal/game/color.go
package game

import "fmt"

// TeamColor identifies one of the four fixed teams. The numeric order is
// also the rotation order: red, blue, green, yellow, then back to red.
type TeamColor int

const (
	Red TeamColor = iota
	Blue
	Green
	Yellow

	// NumTeamColors is the size of the closed enum; teams live in arrays
	// of this length so every color is always accounted for.
	NumTeamColors = 4
)

// AllTeamColors lists every color in rotation order.
func AllTeamColors() [NumTeamColors]TeamColor {
	return [NumTeamColors]TeamColor{Red, Blue, Green, Yellow}
}

func (c TeamColor) String() string {
	switch c {
	case Red:
		return "red"
	case Blue:
		return "blue"
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	}
	return fmt.Sprintf("TeamColor(%d)", int(c))
}

// Valid reports whether c is one of the four defined colors.
func (c TeamColor) Valid() bool {
	return c >= Red && c < NumTeamColors
}

// next returns the color after c in the fixed cycle.
func (c TeamColor) next() TeamColor {
	return (c + 1) % NumTeamColors
}

// ParseTeamColor converts a wire string into a TeamColor.
func ParseTeamColor(s string) (TeamColor, error) {
	switch s {
	case "red":
		return Red, nil
	case "blue":
		return Blue, nil
	case "green":
		return Green, nil
	case "yellow":
		return Yellow, nil
	}
	return 0, fmt.Errorf("unknown team color %q", s)
}

// MarshalJSON encodes the color as its lowercase name.
func (c TeamColor) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON decodes a lowercase color name.
func (c *TeamColor) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("team color must be a JSON string")
	}
	parsed, err := ParseTeamColor(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

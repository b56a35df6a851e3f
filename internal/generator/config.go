package generator

import "fmt"

// Mode selects the shape of the generated graph.
type Mode string

const (
	// ModeRandom builds a connected random graph: a random spanning tree plus extra chords.
	ModeRandom Mode = "random"
	// ModeTerrain builds a grid whose edge costs follow a simplex-noise elevation map.
	ModeTerrain Mode = "terrain"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRandom, ModeTerrain:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown generator mode %q", s)
	}
}

// Config drives the synthetic data generator.
type Config struct {
	Mode Mode
	// Random mode.
	NumNodes   int
	ExtraEdges int
	MaxCost    float64
	// Terrain mode.
	Width      int
	Height     int
	NoiseScale float64
	Steepness  float64

	Seed int64
}

// DefaultConfig returns baseline settings for a medium sized graph.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeRandom,
		NumNodes:   1000,
		ExtraEdges: 3000,
		MaxCost:    10,
		Width:      40,
		Height:     40,
		NoiseScale: 0.08,
		Steepness:  20,
		Seed:       42,
	}
}

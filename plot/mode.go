package plot

import (
	"fmt"
	"strings"
)

// RenderMode picks where a plot goes. It is always chosen explicitly by the
// caller; the environment is never checked for a display.
type RenderMode string

const (
	// Interactive draws an ASCII overlay onto the console writer.
	Interactive RenderMode = "interactive"
	// Headless writes a PNG artifact to disk.
	Headless RenderMode = "headless"
)

// DefaultRenderMode is used when neither the config nor the CLI names one
const DefaultRenderMode = Headless

func ParseRenderMode(s string) (RenderMode, error) {
	switch RenderMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultRenderMode, nil
	case Interactive:
		return Interactive, nil
	case Headless:
		return Headless, nil
	}
	return "", fmt.Errorf("render mode must be interactive or headless, got %q", s)
}

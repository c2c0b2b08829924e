package plugins

import "github.com/GriffinCanCode/dogeterm/internal/terminal"

// Color is the hook point for output highlighting. Terminal output already
// carries the shell's own escape sequences, so it passes chunks through.
type Color struct {
	terminal.BasePlugin
}

func NewColor() *Color { return &Color{} }

func (c *Color) Name() string { return "color" }

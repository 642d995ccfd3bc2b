// Package render defines the semantic markup screens emit and the renderers
// that turn it into something visible: a styled terminal frame for the host
// emulator and a monochrome raster for the e-paper panel. Screens only supply
// content; presentation decisions live entirely here.
package render

import "time"

// Align is a layout hint for one markup line.
type Align uint8

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Line is one row of screen content.
type Line struct {
	Text     string
	Align    Align
	Emphasis bool
}

// Document is the semantic markup a screen produces: a title, an optional
// oversized value (temperature, day number), and body lines.
type Document struct {
	Title   string
	BigText string
	Lines   []Line
}

// Chrome is the persistent overlay sampled by the lifecycle manager on each
// frame: battery, link and clock, drawn on every screen.
type Chrome struct {
	BatteryPercent int
	LinkUp         bool
	Now            time.Time
	Location       string
}

// Frame is the full read-only render state handed to a Renderer once per
// frame. Only the lifecycle manager constructs Frames.
type Frame struct {
	Screen string
	Doc    Document
	Chrome Chrome
}

// Renderer consumes one frame. Implementations must tolerate being called on
// their own cadence with identical frames.
type Renderer interface {
	Render(Frame) error
}

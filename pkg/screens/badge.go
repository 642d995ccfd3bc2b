package screens

import (
	"github.com/pxp9/name-badge/pkg/config"
	"github.com/pxp9/name-badge/pkg/input"
	"github.com/pxp9/name-badge/pkg/render"
	"github.com/pxp9/name-badge/pkg/ui"
)

// BadgeName is the registry key of the name card screen.
const BadgeName = "badge"

// Badge is the idle name card: wearer identity from config plus the resolved
// location. It holds no mutable state and ignores all input.
type Badge struct {
	cfg config.BadgeConfig
	loc LocationSource
}

// NewBadge builds the name card screen.
func NewBadge(cfg config.BadgeConfig, loc LocationSource) *Badge {
	return &Badge{cfg: cfg, loc: loc}
}

func (b *Badge) Name() string { return BadgeName }

func (b *Badge) Mount(env *ui.Env, args any) {}

func (b *Badge) HandleButton(ev input.ButtonEvent) *ui.Nav { return nil }

func (b *Badge) HandleTimer(tok ui.TimerToken) {}

func (b *Badge) Render() render.Document {
	doc := render.Document{
		Title:   "Badge",
		BigText: b.cfg.Name,
	}
	if b.cfg.Handle != "" {
		doc.Lines = append(doc.Lines, render.Line{Text: b.cfg.Handle, Align: render.AlignCenter, Emphasis: true})
	}
	if b.cfg.Company != "" {
		doc.Lines = append(doc.Lines, render.Line{Text: b.cfg.Company, Align: render.AlignCenter})
	}
	if b.loc != nil {
		if pl := b.loc.Current(); pl.Name != "" {
			doc.Lines = append(doc.Lines, render.Line{Text: pl.Name, Align: render.AlignCenter})
		}
	}
	return doc
}

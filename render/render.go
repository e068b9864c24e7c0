// Package render draws game snapshots.
package render

import "github.com/hoshinonyaruko/snake-web/structs"

// Renderer consumes a read-only snapshot once per tick.
type Renderer interface {
	Render(snap structs.Snapshot) error
}

// Func adapts a plain function to Renderer.
type Func func(structs.Snapshot) error

func (f Func) Render(snap structs.Snapshot) error { return f(snap) }

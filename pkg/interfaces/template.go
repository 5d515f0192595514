package interfaces

import "io"

// TemplateRenderer executes a named layout against page data.
type TemplateRenderer interface {
	Render(name string, data any, out io.Writer) error
	Has(name string) bool
}

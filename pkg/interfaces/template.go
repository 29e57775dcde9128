package interfaces

import (
	"io"
)

// TemplateRenderer renders named layout templates. Render and RenderTemplate
// return the rendered output and optionally copy it to the supplied writers;
// RenderString renders an inline template body. RegisterFunc installs a
// helper available to every template and must be called before templates are
// parsed.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFunc(name string, fn any) error
	GlobalContext(data any) error
}

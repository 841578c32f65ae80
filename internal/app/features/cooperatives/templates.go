// internal/app/features/cooperatives/templates.go
package cooperatives

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "cooperatives",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}

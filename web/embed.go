package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed css/*.css
var staticFS embed.FS

func TemplatesFS() fs.FS {
	sub, _ := fs.Sub(templatesFS, "templates")
	return sub
}

func StaticFS() fs.FS {
	return staticFS
}

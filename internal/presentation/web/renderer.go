package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページテンプレート名
const (
	pageHome  = "home.html"
	pageDesk  = "desk.html"
	pageError = "error.html"
)

// Renderer echo.Rendererの実装。ページごとにlayoutと組み合わせたテンプレートを持つ
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer 埋め込みテンプレートを読み込んでRendererを作成
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{pageHome, pageDesk, pageError} {
		t, err := template.New("layout.html").ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render ページを描画する
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}

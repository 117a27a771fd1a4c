package pages

import (
	"embed"
	"html/template"

	"github.com/geocoder89/userdesk/internal/console"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates parses the console pages for gin's SetHTMLTemplate.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.tmpl"))
}

type loginView struct {
	Title   string
	Email   string
	Error   string
	Loading bool
}

type pageLinkView struct {
	console.PageLink
}

func (p pageLinkView) IsBreak() bool {
	return p.Kind == console.LinkBreak
}

type dashboardView struct {
	Title  string
	State  console.State
	Notice string
	Pages  []pageLinkView

	// previous dashboard page, empty when there is none to go back to
	Back string

	// 1-based positions of the first and last loaded rows within the total
	First int
	Last  int
}

func newDashboardView(s console.State, notice string) dashboardView {
	links := console.PageLinks(s.Cursor, s.PageCount())
	pages := make([]pageLinkView, 0, len(links))
	for _, l := range links {
		pages = append(pages, pageLinkView{l})
	}

	v := dashboardView{
		Title:  "Users",
		State:  s,
		Notice: notice,
		Pages:  pages,
	}

	if n := len(s.Users); n > 0 {
		v.First = s.Cursor*s.PageSize + 1
		v.Last = v.First + n - 1
	}
	return v
}

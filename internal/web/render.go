package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"login.html",
	"register.html",
	"home.html",
	"room.html",
	"profile.html",
	"room_form.html",
	"delete.html",
	"update-user.html",
	"topics.html",
	"activity.html",
}

// renderer holds one template set per page, each parsed together with the layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer(media func(string) string) (*renderer, error) {
	funcs := template.FuncMap{
		"media": media,
		"date": func(t time.Time) string {
			return t.Format("Jan 2, 2006 15:04")
		},
		"since":    timeSince,
		"pageLink": pageLink,
		"add":      func(a, b int) int { return a + b },
	}

	r := &renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// render executes page inside the layout. The signed-in user and pending
// flashes are added to data under CurrentUser and Flashes.
func (s *Site) render(c *gin.Context, status int, page string, data gin.H) {
	tmpl, ok := s.renderer.pages[page]
	if !ok {
		logger.Error().Str("page", page).Msg("Unknown template")
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if data == nil {
		data = gin.H{}
	}
	if user, ok := middleware.CurrentUser(c); ok {
		data["CurrentUser"] = user
	}
	data["Flashes"] = takeFlashes(c)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Error().Err(err).Str("page", page).Msg("Failed to render page")
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// pageLink is the home page URL for page n of the search q.
func pageLink(q string, n int) string {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	if n > 1 {
		v.Set("page", strconv.Itoa(n))
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}

func timeSince(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	default:
		return plural(int(d.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

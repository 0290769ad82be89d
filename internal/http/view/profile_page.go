package view

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/linkyoself/linkyoself/internal/app/model"
)

// PageLink is one button on a public profile page.
type PageLink struct {
	Title           string
	Description     string
	Href            string
	BackgroundColor string
	TextColor       string
	BorderRadius    int
}

// ProfilePageData provides the dynamic fields of the public profile page.
type ProfilePageData struct {
	Title       string
	Username    string
	DisplayName string
	Bio         string
	ImageURL    string
	ThemeColor  string
	Background  template.CSS
	Links       []PageLink
	Socials     []PageLink
}

// NewProfilePageData builds page data for user. Link buttons point at
// clickPath(link) so visits are counted before the redirect.
func NewProfilePageData(user *model.User, links []model.Link, clickPath func(model.Link) string) ProfilePageData {
	data := ProfilePageData{
		Title:       "@" + user.Username,
		Username:    user.Username,
		DisplayName: deref(user.DisplayName),
		Bio:         deref(user.Bio),
		ImageURL:    deref(user.ProfileImageURL),
		ThemeColor:  user.ThemeColor,
		Background:  background(user),
		Links:       make([]PageLink, 0, len(links)),
	}
	if t := deref(user.PageTitle); t != "" {
		data.Title = t
	}
	if data.DisplayName == "" {
		data.DisplayName = user.Username
	}
	if data.ThemeColor == "" {
		data.ThemeColor = model.DefaultThemeColor
	}

	for _, l := range links {
		data.Links = append(data.Links, PageLink{
			Title:           l.Title,
			Description:     deref(l.Description),
			Href:            clickPath(l),
			BackgroundColor: deref(l.BackgroundColor),
			TextColor:       deref(l.TextColor),
			BorderRadius:    l.BorderRadius,
		})
	}

	if w := deref(user.Website); w != "" {
		data.Socials = append(data.Socials, PageLink{Title: "Website", Href: w})
	}
	if h := deref(user.TwitterUsername); h != "" {
		data.Socials = append(data.Socials, PageLink{Title: "Twitter", Href: "https://twitter.com/" + h})
	}
	if h := deref(user.InstagramUsername); h != "" {
		data.Socials = append(data.Socials, PageLink{Title: "Instagram", Href: "https://instagram.com/" + h})
	}
	if h := deref(user.LinkedinUsername); h != "" {
		data.Socials = append(data.Socials, PageLink{Title: "LinkedIn", Href: "https://www.linkedin.com/in/" + h})
	}
	return data
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// background only lets plain colors through; gradients and images fall back
// to the theme-derived default.
func background(user *model.User) template.CSS {
	v := deref(user.BackgroundValue)
	if user.BackgroundType == model.DefaultBackgroundType && hexColor(v) {
		return template.CSS(v)
	}
	return template.CSS("#0b0d12")
}

func hexColor(s string) bool {
	if (len(s) != 4 && len(s) != 7) || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}

var profilePageTmpl = template.Must(template.New("profile_page").Funcs(template.FuncMap{
	"px": func(n int) template.CSS { return template.CSS(fmt.Sprintf("%dpx", n)) },
	"color": func(s string) template.CSS {
		if hexColor(s) {
			return template.CSS(s)
		}
		return ""
	},
}).Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{.Title}}</title>
	<style>
		:root {
			--bg: {{.Background}};
			--card: rgba(255, 255, 255, 0.06);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
			--accent: {{color .ThemeColor}};
			font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			justify-content: center;
			background: var(--bg);
			color: var(--text);
		}
		main {
			width: min(560px, 92vw);
			padding: 48px 0;
			text-align: center;
		}
		.avatar {
			width: 96px;
			height: 96px;
			border-radius: 50%;
			object-fit: cover;
			border: 3px solid var(--accent);
		}
		h1 { font-size: 1.5rem; margin: 16px 0 6px; }
		p.bio { color: var(--muted); margin-top: 0; }
		.links { display: flex; flex-direction: column; gap: 14px; margin-top: 28px; }
		a.link {
			display: block;
			padding: 16px 20px;
			background: var(--accent);
			color: #fff;
			font-weight: 600;
			text-decoration: none;
			border: 1px solid var(--border);
			transition: transform 0.15s ease, opacity 0.15s ease;
		}
		a.link:hover { transform: translateY(-1px); opacity: 0.92; }
		a.link small { display: block; font-weight: 400; opacity: 0.8; margin-top: 4px; }
		.socials { margin-top: 32px; display: flex; gap: 16px; justify-content: center; flex-wrap: wrap; }
		.socials a { color: var(--muted); }
		.empty { color: var(--muted); margin-top: 28px; }
	</style>
</head>
<body>
	<main>
		{{if .ImageURL}}<img class="avatar" src="{{.ImageURL}}" alt="{{.DisplayName}}" />{{end}}
		<h1>{{.DisplayName}}</h1>
		{{if .Bio}}<p class="bio">{{.Bio}}</p>{{end}}

		{{if .Links}}
		<nav class="links">
			{{range .Links}}
			<a class="link" href="{{.Href}}" rel="noopener"
				style="border-radius: {{px .BorderRadius}};{{with color .BackgroundColor}} background: {{.}};{{end}}{{with color .TextColor}} color: {{.}};{{end}}">
				{{.Title}}{{if .Description}}<small>{{.Description}}</small>{{end}}
			</a>
			{{end}}
		</nav>
		{{else}}
		<p class="empty">@{{.Username}} has not added any links yet.</p>
		{{end}}

		{{if .Socials}}
		<div class="socials">
			{{range .Socials}}<a href="{{.Href}}" rel="noopener">{{.Title}}</a>{{end}}
		</div>
		{{end}}
	</main>
</body>
</html>
`))

// RenderProfilePage expands the public profile template with the provided data.
func RenderProfilePage(data ProfilePageData) (string, error) {
	var buf bytes.Buffer
	if err := profilePageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

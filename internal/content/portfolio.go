// Package content loads the portfolio fixture that every page section is
// rendered from.
//
// Fixtures are authored as JSONC (JSON with comments and trailing commas) or
// YAML. The loaded Portfolio is immutable; Store swaps whole snapshots when
// the file changes on disk.
package content

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrNotFound is returned by slug lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Portfolio is the whole fixture.
type Portfolio struct {
	Site       Site           `json:"site" yaml:"site"`
	Hero       Hero           `json:"hero" yaml:"hero"`
	Nav        []NavItem      `json:"nav,omitempty" yaml:"nav,omitempty"`
	Skills     []Skill        `json:"skills" yaml:"skills"`
	Projects   []Project      `json:"projects" yaml:"projects"`
	Multimedia []Media        `json:"multimedia" yaml:"multimedia"`
	Contact    ContactSection `json:"contact" yaml:"contact"`
	Resume     Resume         `json:"resume" yaml:"resume"`
}

// Site holds page chrome.
type Site struct {
	Brand  string `json:"brand" yaml:"brand"`
	Title  string `json:"title" yaml:"title"`
	Footer string `json:"footer" yaml:"footer"`
}

// Hero is the #home section.
type Hero struct {
	Prompt  string `json:"prompt" yaml:"prompt"`
	Name    string `json:"name" yaml:"name"`
	Tagline string `json:"tagline" yaml:"tagline"`
	// Bio is markdown.
	Bio     string `json:"bio,omitempty" yaml:"bio,omitempty"`
	Socials []Link `json:"socials,omitempty" yaml:"socials,omitempty"`
}

// Link is an icon link. Icon names a glyph known to the templates
// (github, youtube, twitch, mail, external).
type Link struct {
	Label string `json:"label" yaml:"label"`
	Icon  string `json:"icon" yaml:"icon"`
	URL   string `json:"url" yaml:"url"`
}

// NavItem is one anchor in the navigation bar.
type NavItem struct {
	Label  string `json:"label" yaml:"label"`
	Anchor string `json:"anchor" yaml:"anchor"`
}

// Skill is a card in the #skills grid.
type Skill struct {
	Icon          string   `json:"icon" yaml:"icon"`
	Title         string   `json:"title" yaml:"title"`
	Items         []string `json:"items" yaml:"items"`
	CreativeTools bool     `json:"creativeTools,omitempty" yaml:"creativeTools,omitempty"`
}

// Project is a card in the #projects grid.
type Project struct {
	Title        string   `json:"title" yaml:"title"`
	Description  string   `json:"description" yaml:"description"`
	Image        string   `json:"image" yaml:"image"`
	GithubURL    string   `json:"githubUrl" yaml:"githubUrl"`
	LiveURL      string   `json:"liveUrl,omitempty" yaml:"liveUrl,omitempty"`
	Technologies []string `json:"technologies,omitempty" yaml:"technologies,omitempty"`
}

// Media is a card in the #multimedia grid; clicking it opens a preview.
type Media struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image" yaml:"image"`
}

// ContactSection is the #contact terminal window.
type ContactSection struct {
	Command string `json:"command" yaml:"command"`
	Prompt  string `json:"prompt" yaml:"prompt"`
	Links   []Link `json:"links,omitempty" yaml:"links,omitempty"`
}

// Resume describes the downloadable resume.
type Resume struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Sections are the anchors a page renders, in page order.
var Sections = []string{"home", "skills", "projects", "multimedia", "contact"}

// DefaultNav is used when the fixture declares no navigation.
func DefaultNav() []NavItem {
	nav := make([]NavItem, 0, len(Sections))
	for _, s := range Sections {
		nav = append(nav, NavItem{Label: strings.ToUpper(s), Anchor: s})
	}
	return nav
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slug lower-cases title and replaces each whitespace run with a dash.
func Slug(title string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(title), "-")
}

// Slug returns the project's slug.
func (p Project) Slug() string { return Slug(p.Title) }

// RepoName returns the last path segment of GithubURL.
func (p Project) RepoName() string {
	u, err := url.Parse(p.GithubURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	return parts[len(parts)-1]
}

// LiveHost returns the hostname of LiveURL, or "" when there is none.
func (p Project) LiveHost() string {
	if p.LiveURL == "" {
		return ""
	}
	u, err := url.Parse(p.LiveURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Slug returns the media item's slug.
func (m Media) Slug() string { return Slug(m.Title) }

// applyDefaults fills in chrome the fixture may leave out.
func (p *Portfolio) applyDefaults() {
	if len(p.Nav) == 0 {
		p.Nav = DefaultNav()
	}
	if p.Site.Footer == "" {
		p.Site.Footer = "[END OF LINE]"
	}
	if p.Site.Title == "" {
		p.Site.Title = p.Hero.Name
	}
	if p.Hero.Prompt == "" {
		p.Hero.Prompt = "[system@terminal] ~ $"
	}
	if p.Contact.Command == "" {
		p.Contact.Command = "$ contact.exe --init"
	}
	if p.Resume.Title == "" {
		p.Resume.Title = "resume.pdf"
	}
}

// MediaBySlug finds a multimedia item by its slug.
func (p *Portfolio) MediaBySlug(slug string) (Media, error) {
	for _, m := range p.Multimedia {
		if m.Slug() == slug {
			return m, nil
		}
	}
	return Media{}, ErrNotFound
}

// ProjectBySlug finds a project by its slug.
func (p *Portfolio) ProjectBySlug(slug string) (Project, error) {
	for _, pr := range p.Projects {
		if pr.Slug() == slug {
			return pr, nil
		}
	}
	return Project{}, ErrNotFound
}

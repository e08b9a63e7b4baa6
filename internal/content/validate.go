package content

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Problem is one thing wrong with a fixture.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string {
	return p.Path + ": " + p.Message
}

// Problems collects every Problem found by Validate.
type Problems []Problem

func (ps Problems) Error() string {
	lines := make([]string, len(ps))
	for i, p := range ps {
		lines[i] = p.String()
	}
	return fmt.Sprintf("invalid portfolio: %s", strings.Join(lines, "; "))
}

// Validate reports every problem in p. It returns nil when p is usable.
func (p *Portfolio) Validate() error {
	var ps Problems
	add := func(path, format string, args ...any) {
		ps = append(ps, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(p.Hero.Name) == "" {
		add("hero.name", "required")
	}
	for i, l := range p.Hero.Socials {
		if l.URL == "" {
			add(fmt.Sprintf("hero.socials[%d].url", i), "required")
		}
	}

	for i, n := range p.Nav {
		if !slices.Contains(Sections, n.Anchor) {
			add(fmt.Sprintf("nav[%d].anchor", i), "unknown section %q", n.Anchor)
		}
	}

	for i, s := range p.Skills {
		if strings.TrimSpace(s.Title) == "" {
			add(fmt.Sprintf("skills[%d].title", i), "required")
		}
	}

	seen := map[string]int{}
	for i, pr := range p.Projects {
		path := fmt.Sprintf("projects[%d]", i)
		if strings.TrimSpace(pr.Title) == "" {
			add(path+".title", "required")
			continue
		}
		if j, ok := seen[pr.Slug()]; ok {
			add(path+".title", "slug %q duplicates projects[%d]", pr.Slug(), j)
		}
		seen[pr.Slug()] = i
		if !isHTTPURL(pr.GithubURL) {
			add(path+".githubUrl", "must be an absolute http(s) URL")
		}
		if pr.LiveURL != "" && !isHTTPURL(pr.LiveURL) {
			add(path+".liveUrl", "must be an absolute http(s) URL")
		}
	}

	seen = map[string]int{}
	for i, m := range p.Multimedia {
		path := fmt.Sprintf("multimedia[%d]", i)
		if strings.TrimSpace(m.Title) == "" {
			add(path+".title", "required")
			continue
		}
		if j, ok := seen[m.Slug()]; ok {
			add(path+".title", "slug %q duplicates multimedia[%d]", m.Slug(), j)
		}
		if !routableMediaSlug(m.Slug()) {
			add(path+".title", "slug %q cannot be routed", m.Slug())
		}
		seen[m.Slug()] = i
		if m.Image == "" {
			add(path+".image", "required")
		}
	}

	if len(ps) == 0 {
		return nil
	}
	return ps
}

// MediaCloseSlug is the /multimedia/ path segment that closes the preview
// modal, so no media item may use it.
const MediaCloseSlug = "close"

// routableMediaSlug reports whether slug fits in one /multimedia/:slug segment.
func routableMediaSlug(slug string) bool {
	return slug != MediaCloseSlug && !strings.ContainsAny(slug, `/\?#%`)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

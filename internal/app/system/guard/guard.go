// Package guard decides, for a session snapshot and a path, whether the
// screen renders, waits, redirects or does not exist. The rules live in an
// embedded YAML table so navigation, action checks and routing all read the
// same source.
package guard

import (
	_ "embed"
	"fmt"
	"path"
	"strings"

	"github.com/dalemusser/coophub/internal/app/system/session"
	"github.com/dalemusser/coophub/internal/domain/models"
	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

// Outcome is the kind of decision.
type Outcome int

const (
	Render Outcome = iota
	Loading
	Redirect
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Decision is what the guard tells the router.
type Decision struct {
	Outcome Outcome
	Target  string // set for Redirect
	Screen  string // matched screen name, "" when none
}

// Screen is one row of the policy table.
type Screen struct {
	Name    string                   `yaml:"name"`
	Path    string                   `yaml:"path"`
	Label   string                   `yaml:"label"`
	Public  bool                     `yaml:"public"`
	Open    bool                     `yaml:"open"`
	Roles   []models.Role            `yaml:"roles"`
	Actions map[string][]models.Role `yaml:"actions"`
}

func (s Screen) allows(role models.Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// NavItem is one entry in the navigation bar.
type NavItem struct {
	Name  string
	Label string
	Path  string
}

// Policy is the parsed route table.
type Policy struct {
	Home    string   `yaml:"home"`
	Login   string   `yaml:"login"`
	Screens []Screen `yaml:"screens"`

	byName map[string]*Screen
}

// Default returns the embedded policy. It panics if the embedded table is
// invalid, which the package tests rule out.
func Default() *Policy {
	p, err := Load(defaultPolicy)
	if err != nil {
		panic(fmt.Sprintf("guard: embedded policy: %v", err))
	}
	return p
}

// Load parses and validates a YAML policy table.
func Load(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if p.Home == "" || p.Login == "" {
		return nil, fmt.Errorf("policy: home and login paths are required")
	}
	p.byName = make(map[string]*Screen, len(p.Screens))
	for i := range p.Screens {
		s := &p.Screens[i]
		if s.Name == "" || !strings.HasPrefix(s.Path, "/") {
			return nil, fmt.Errorf("policy: screen %d needs a name and an absolute path", i)
		}
		if _, dup := p.byName[s.Name]; dup {
			return nil, fmt.Errorf("policy: duplicate screen %q", s.Name)
		}
		if s.Public && s.Open {
			return nil, fmt.Errorf("policy: screen %q cannot be both public and open", s.Name)
		}
		for _, r := range s.Roles {
			if _, ok := models.ParseRole(string(r)); !ok {
				return nil, fmt.Errorf("policy: screen %q: unknown role %q", s.Name, r)
			}
		}
		for action, roles := range s.Actions {
			for _, r := range roles {
				if !s.allows(r) {
					return nil, fmt.Errorf("policy: %s.%s grants %q which cannot see the screen", s.Name, action, r)
				}
			}
		}
		p.byName[s.Name] = s
	}
	if _, ok := p.match(p.Home); !ok {
		return nil, fmt.Errorf("policy: home %q matches no screen", p.Home)
	}
	if _, ok := p.match(p.Login); !ok {
		return nil, fmt.Errorf("policy: login %q matches no screen", p.Login)
	}
	return &p, nil
}

// match finds the screen whose path equals p or is a path prefix of it.
func (p *Policy) match(target string) (*Screen, bool) {
	clean := path.Clean("/" + target)
	for i := range p.Screens {
		s := &p.Screens[i]
		if clean == s.Path || strings.HasPrefix(clean, s.Path+"/") {
			return s, true
		}
	}
	return nil, false
}

// Decide maps a session snapshot and request path to a decision.
func (p *Policy) Decide(snap session.Snapshot, target string) Decision {
	if snap.IsLoading() {
		return Decision{Outcome: Loading}
	}

	if path.Clean("/"+target) == "/" {
		if snap.IsAuthenticated() {
			return Decision{Outcome: Redirect, Target: p.Home}
		}
		return Decision{Outcome: Redirect, Target: p.Login}
	}

	s, ok := p.match(target)
	if !ok {
		return Decision{Outcome: NotFound}
	}

	switch {
	case s.Open:
		return Decision{Outcome: Render, Screen: s.Name}
	case s.Public:
		if snap.IsAuthenticated() {
			return Decision{Outcome: Redirect, Target: p.Home, Screen: s.Name}
		}
		return Decision{Outcome: Render, Screen: s.Name}
	case !snap.IsAuthenticated():
		return Decision{Outcome: Redirect, Target: p.Login, Screen: s.Name}
	case !s.allows(snap.Role()):
		return Decision{Outcome: Redirect, Target: p.Home, Screen: s.Name}
	default:
		return Decision{Outcome: Render, Screen: s.Name}
	}
}

// Allows reports whether role may perform action on the named screen. An
// empty action asks about viewing the screen itself. Actions the table does
// not list fall back to the screen's roles.
func (p *Policy) Allows(role models.Role, screen, action string) bool {
	s, ok := p.byName[screen]
	if !ok {
		return false
	}
	if s.Open {
		return true
	}
	if s.Public {
		return role == ""
	}
	if action == "" {
		return s.allows(role)
	}
	roles, listed := s.Actions[action]
	if !listed {
		return s.allows(role)
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Nav returns the labelled screens role can see, in table order.
func (p *Policy) Nav(role models.Role) []NavItem {
	var out []NavItem
	for _, s := range p.Screens {
		if s.Label == "" || s.Public || s.Open || !s.allows(role) {
			continue
		}
		out = append(out, NavItem{Name: s.Name, Label: s.Label, Path: s.Path})
	}
	return out
}

// Screen returns the named row.
func (p *Policy) Screen(name string) (Screen, bool) {
	s, ok := p.byName[name]
	if !ok {
		return Screen{}, false
	}
	return *s, true
}

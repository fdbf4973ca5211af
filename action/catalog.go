package action

import (
	"fmt"
	"strings"
	"sync"

	"github.com/yllada/vpn-tray/common"
)

// UserActions is the part of Store the catalog needs.
type UserActions interface {
	List() []Descriptor
}

// Catalog is the merged, read-only view of built-in and user actions.
type Catalog struct {
	mu       sync.RWMutex
	toolPath string
	builtins []Descriptor
	user     UserActions
}

// NewCatalog binds the built-ins and the favorite connect targets
// ("Country" or "Country/City") to toolPath. user may be nil.
func NewCatalog(toolPath string, favorites []string, user UserActions) *Catalog {
	c := &Catalog{user: user}
	c.SetToolPath(toolPath, favorites)
	return c
}

// SetToolPath rebinds the built-ins after a configuration change.
func (c *Catalog) SetToolPath(toolPath string, favorites []string) {
	list := Builtins(toolPath)
	for _, fav := range favorites {
		country, city := ParseFavorite(fav)
		if country == "" {
			continue
		}
		list = append(list, ConnectTo(toolPath, country, city))
	}

	c.mu.Lock()
	c.toolPath = toolPath
	c.builtins = list
	c.mu.Unlock()
}

// ToolPath returns the bound tool path.
func (c *Catalog) ToolPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.toolPath
}

// All returns built-ins first, then user actions.
func (c *Catalog) All() []Descriptor {
	c.mu.RLock()
	out := make([]Descriptor, 0, len(c.builtins))
	for _, d := range c.builtins {
		out = append(out, d.Clone())
	}
	c.mu.RUnlock()

	if c.user != nil {
		out = append(out, c.user.List()...)
	}
	return out
}

// Get returns the action with the given id.
func (c *Catalog) Get(id string) (Descriptor, error) {
	for _, d := range c.All() {
		if d.ID == id {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %s", common.ErrActionNotFound, id)
}

// Lookup accepts an id or a case-insensitive title. Ids win.
func (c *Catalog) Lookup(key string) (Descriptor, error) {
	all := c.All()
	for _, d := range all {
		if d.ID == key {
			return d, nil
		}
	}
	for _, d := range all {
		if strings.EqualFold(d.Title, key) {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %s", common.ErrActionNotFound, key)
}

// Status returns the hidden status check action.
func (c *Catalog) Status() Descriptor {
	d, _ := c.Get(IDStatus)
	return d
}

// Menu groups the visible actions: common ones in order, then one entry
// per submenu group in order of first appearance.
func (c *Catalog) Menu() (items []Descriptor, groups []string, submenus map[string][]Descriptor) {
	submenus = make(map[string][]Descriptor)
	for _, d := range c.All() {
		switch d.Anchor {
		case AnchorCommon:
			items = append(items, d)
		case AnchorOwnSubmenu:
			if _, seen := submenus[d.Group]; !seen {
				groups = append(groups, d.Group)
			}
			submenus[d.Group] = append(submenus[d.Group], d)
		}
	}
	return items, groups, submenus
}

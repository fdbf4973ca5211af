// Package action describes the commands the tray can invoke: the wrapped
// tool's built-in sub-commands, application-level system actions and
// user-defined commands persisted in actions.yaml.
package action

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/process"
)

// Anchor controls where an action shows up in the tray menu.
type Anchor int

const (
	// AnchorHidden actions are never listed (the status check).
	AnchorHidden Anchor = iota
	// AnchorCommon actions are items of the main menu.
	AnchorCommon
	// AnchorOwnSubmenu actions are grouped in a submenu named by Group.
	AnchorOwnSubmenu
)

var anchorNames = map[Anchor]string{
	AnchorHidden:     "hidden",
	AnchorCommon:     "common",
	AnchorOwnSubmenu: "own-submenu",
}

// String returns the anchor name as written in actions.yaml.
func (a Anchor) String() string {
	if name, ok := anchorNames[a]; ok {
		return name
	}
	return "hidden"
}

// ParseAnchor converts a name back into an Anchor.
func ParseAnchor(name string) (Anchor, error) {
	for a, n := range anchorNames {
		if n == name {
			return a, nil
		}
	}
	return AnchorHidden, fmt.Errorf("%w: unknown anchor %q", common.ErrInvalidAction, name)
}

// MarshalYAML implements yaml.Marshaler.
func (a Anchor) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Anchor) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseAnchor(name)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Scope says who defined an action and how it is dispatched. The concrete
// types are SystemScope, ToolScope and UserScope.
type Scope interface {
	scopeName() string
}

// SystemCommand enumerates actions implemented by the application itself.
type SystemCommand int

const (
	// SystemCheckNow runs an immediate status check.
	SystemCheckNow SystemCommand = iota
	// SystemPause disconnects and reconnects after a delay.
	SystemPause
)

// SystemScope actions never spawn a process directly.
type SystemScope struct {
	Command SystemCommand
}

// ToolScope actions are built-in sub-commands of the wrapped tool.
type ToolScope struct {
	// Builtin is the stable key of the sub-command, e.g. "connect".
	Builtin string
}

// UserScope actions come from actions.yaml.
type UserScope struct{}

func (SystemScope) scopeName() string { return "system" }
func (ToolScope) scopeName() string   { return "tool" }
func (UserScope) scopeName() string   { return "user" }

// ScopeName returns "system", "tool" or "user".
func ScopeName(s Scope) string {
	if s == nil {
		return "user"
	}
	return s.scopeName()
}

// Descriptor is one invocable command. Values are copied on the way out of
// the catalog so a running invocation never sees later edits.
type Descriptor struct {
	ID           string
	Title        string
	Executable   string
	Args         []string
	Timeout      time.Duration
	ForceDisplay bool
	Anchor       Anchor
	// Group names the submenu of AnchorOwnSubmenu actions.
	Group string
	Scope Scope
}

// Clone returns a deep copy.
func (d Descriptor) Clone() Descriptor {
	d.Args = append([]string(nil), d.Args...)
	return d
}

// Validate checks the fields required at save time. The executable is
// checked right before each run instead.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: title is required", common.ErrInvalidAction)
	}
	if d.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", common.ErrInvalidAction)
	}
	if d.Anchor == AnchorOwnSubmenu && strings.TrimSpace(d.Group) == "" {
		return fmt.Errorf("%w: submenu actions need a group", common.ErrInvalidAction)
	}
	return nil
}

// Placeholders lists the {name} arguments still to be resolved.
func (d Descriptor) Placeholders() []string {
	var names []string
	for _, arg := range d.Args {
		if name, ok := placeholder(arg); ok {
			names = append(names, name)
		}
	}
	return names
}

// Resolve returns a copy with every {name} argument replaced by the value
// lookup returns for it.
func (d Descriptor) Resolve(lookup func(name string) (string, bool)) (Descriptor, error) {
	out := d.Clone()
	for i, arg := range out.Args {
		name, ok := placeholder(arg)
		if !ok {
			continue
		}
		value, found := "", false
		if lookup != nil {
			value, found = lookup(name)
		}
		if !found {
			return d, fmt.Errorf("%w: {%s} in %q", common.ErrUnresolvedArg, name, d.Title)
		}
		out.Args[i] = value
	}
	return out, nil
}

func placeholder(arg string) (string, bool) {
	if len(arg) > 2 && strings.HasPrefix(arg, "{") && strings.HasSuffix(arg, "}") {
		return arg[1 : len(arg)-1], true
	}
	return "", false
}

// Request builds the process request for this descriptor.
func (d Descriptor) Request() process.Request {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = common.ActionTimeout
	}
	return process.Request{
		RequesterID: d.ID,
		Path:        d.Executable,
		Args:        append([]string(nil), d.Args...),
		Timeout:     timeout,
	}
}

package action

import (
	"fmt"
	"strings"
)

// Stable ids of the built-in actions.
const (
	IDStatus        = "builtin.status"
	IDConnect       = "builtin.connect"
	IDDisconnect    = "builtin.disconnect"
	IDLogin         = "builtin.login"
	IDLogout        = "builtin.logout"
	IDAccount       = "builtin.account"
	IDSettings      = "builtin.settings"
	IDKillSwitchOn  = "builtin.killswitch.on"
	IDKillSwitchOff = "builtin.killswitch.off"
	IDAutoOn        = "builtin.autoconnect.on"
	IDAutoOff       = "builtin.autoconnect.off"
	IDCheckNow      = "system.check-now"
	IDPause         = "system.pause"
)

// PlaceholderToken is resolved from the keyring at dispatch time.
const PlaceholderToken = "token"

const (
	groupKillSwitch  = "Kill switch"
	groupAutoConnect = "Auto-connect"
	groupRate        = "Rate connection"
	groupConnectTo   = "Connect to"
)

// Builtins returns the wrapped tool's sub-commands bound to toolPath,
// followed by the system actions. The order is menu order.
func Builtins(toolPath string) []Descriptor {
	tool := func(id, builtin, title string, anchor Anchor, group string, force bool, args ...string) Descriptor {
		return Descriptor{
			ID:           id,
			Title:        title,
			Executable:   toolPath,
			Args:         args,
			ForceDisplay: force,
			Anchor:       anchor,
			Group:        group,
			Scope:        ToolScope{Builtin: builtin},
		}
	}

	list := []Descriptor{
		tool(IDStatus, "status", "Status", AnchorHidden, "", false, "status"),
		tool(IDConnect, "connect", "Connect", AnchorCommon, "", false, "c"),
		tool(IDDisconnect, "disconnect", "Disconnect", AnchorCommon, "", false, "d"),
		{
			ID:         IDPause,
			Title:      "Pause",
			Executable: toolPath,
			Args:       []string{"d"},
			Anchor:     AnchorCommon,
			Scope:      SystemScope{Command: SystemPause},
		},
		{
			ID:     IDCheckNow,
			Title:  "Check now",
			Anchor: AnchorHidden,
			Scope:  SystemScope{Command: SystemCheckNow},
		},
		tool(IDLogin, "login", "Log in", AnchorCommon, "", true, "login", "--token", "{"+PlaceholderToken+"}"),
		tool(IDLogout, "logout", "Log out", AnchorCommon, "", true, "logout"),
		tool(IDAccount, "account", "Account", AnchorCommon, "", true, "account"),
		tool(IDSettings, "settings", "Settings", AnchorCommon, "", true, "settings"),
		tool(IDKillSwitchOn, "killswitch", "On", AnchorOwnSubmenu, groupKillSwitch, false, "set", "killswitch", "on"),
		tool(IDKillSwitchOff, "killswitch", "Off", AnchorOwnSubmenu, groupKillSwitch, false, "set", "killswitch", "off"),
		tool(IDAutoOn, "autoconnect", "On", AnchorOwnSubmenu, groupAutoConnect, false, "set", "autoconnect", "on"),
		tool(IDAutoOff, "autoconnect", "Off", AnchorOwnSubmenu, groupAutoConnect, false, "set", "autoconnect", "off"),
	}
	for rating := 1; rating <= 5; rating++ {
		r := fmt.Sprint(rating)
		list = append(list, tool("builtin.rate."+r, "rate", strings.Repeat("★", rating), AnchorOwnSubmenu, groupRate, true, "rate", r))
	}
	return list
}

// ConnectTo builds the connect action for a country and an optional city.
func ConnectTo(toolPath, country, city string) Descriptor {
	id := "builtin.connect." + slug(country)
	title := country
	args := []string{"c", toolName(country)}
	if city != "" {
		id += "." + slug(city)
		title = city + ", " + country
		args = append(args, toolName(city))
	}
	return Descriptor{
		ID:         id,
		Title:      title,
		Executable: toolPath,
		Args:       args,
		Anchor:     AnchorOwnSubmenu,
		Group:      groupConnectTo,
		Scope:      ToolScope{Builtin: "connect"},
	}
}

// ParseFavorite splits a "Country" or "Country/City" entry.
func ParseFavorite(entry string) (country, city string) {
	country, city, _ = strings.Cut(entry, "/")
	return strings.TrimSpace(country), strings.TrimSpace(city)
}

// toolName spells a place the way the tool expects it: "United_States".
func toolName(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

func slug(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

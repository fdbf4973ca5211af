package status

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yllada/vpn-tray/common"
)

// Keys printed by the wrapped tool. Hostname and IP are the spellings newer
// tool releases use for the server and address lines; when both spellings
// appear, Current server and Your new IP win.
const (
	keyStatus     = "Status"
	keyServer     = "Current server"
	keyHostname   = "Hostname"
	keyCountry    = "Country"
	keyCity       = "City"
	keyIP         = "Your new IP"
	keyIPShort    = "IP"
	keyTechnology = "Current technology"
	keyProtocol   = "Current protocol"
	keyTransfer   = "Transfer"
	keyUptime     = "Uptime"
)

// Parser converts status text into a ConnectionStatus. It never fails:
// lines it cannot use are logged and skipped.
type Parser struct {
	log common.Logger
}

// NewParser creates a parser reporting skipped lines to log.
func NewParser(log common.Logger) *Parser {
	if log == nil {
		log = common.NopLogger{}
	}
	return &Parser{log: log}
}

var defaultParser = NewParser(common.GetLogger().WithComponent("status"))

// Parse uses the default parser, which logs to the application logger.
func Parse(text string) ConnectionStatus {
	return defaultParser.Parse(text)
}

// Parse converts text into a ConnectionStatus.
func (p *Parser) Parse(text string) ConnectionStatus {
	var (
		st                   ConnectionStatus
		exactServer, exactIP bool
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !ok || name == "" {
			p.log.Debug("skipping status line %q", line)
			continue
		}

		switch name {
		case keyStatus:
			state, known := ParseState(value)
			if !known {
				p.log.Warn("unrecognized status %q", value)
			}
			st.State = state
		case keyServer:
			st.Server, exactServer = value, true
		case keyHostname:
			if !exactServer {
				st.Server = value
			}
		case keyCountry:
			st.Country = value
		case keyCity:
			st.City = value
		case keyIP:
			st.IP, exactIP = value, true
		case keyIPShort:
			if !exactIP {
				st.IP = value
			}
		case keyTechnology:
			st.Technology = value
		case keyProtocol:
			st.Protocol = value
		case keyTransfer:
			st.Traffic = formatTraffic(value)
		case keyUptime:
			st.Uptime = p.ParseUptime(value)
		default:
			p.log.Debug("ignoring status field %q", name)
		}
	}

	return st
}

func formatTraffic(value string) string {
	value = strings.ReplaceAll(value, "received", "↓")
	return strings.ReplaceAll(value, "sent", "↑")
}

// Uptime slots, largest first.
const (
	slotDays = iota
	slotHours
	slotMinutes
	slotSeconds
	slotCount
)

func uptimeSlot(unit string) (int, bool) {
	unit = strings.ToLower(strings.TrimRight(unit, ","))
	switch {
	case strings.HasPrefix(unit, "day"):
		return slotDays, true
	case strings.HasPrefix(unit, "hour"):
		return slotHours, true
	case strings.HasPrefix(unit, "minute"):
		return slotMinutes, true
	case strings.HasPrefix(unit, "second"):
		return slotSeconds, true
	default:
		return 0, false
	}
}

// ParseUptime uses the default parser.
func ParseUptime(value string) string {
	return defaultParser.ParseUptime(value)
}

// ParseUptime turns "3 hours 24 minutes 5 seconds" into "03:24:05".
// Hours, minutes and seconds are always present; days appear as a
// three-digit leading component only when the tool reports them.
// Input without a single recognizable (number, unit) pair yields "".
func (p *Parser) ParseUptime(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}

	var (
		slots [slotCount]int
		seen  bool
	)
	for i := 0; i+1 < len(fields); i += 2 {
		n, err := strconv.Atoi(fields[i])
		if err != nil || n < 0 {
			p.log.Debug("skipping uptime component %q %q", fields[i], fields[i+1])
			continue
		}
		slot, ok := uptimeSlot(fields[i+1])
		if !ok {
			p.log.Debug("unknown uptime unit %q", fields[i+1])
			continue
		}
		slots[slot] = n
		seen = true
	}
	if !seen {
		return ""
	}

	uptime := fmt.Sprintf("%02d:%02d:%02d", slots[slotHours], slots[slotMinutes], slots[slotSeconds])
	if slots[slotDays] > 0 {
		uptime = fmt.Sprintf("%03d:", slots[slotDays]) + uptime
	}
	return uptime
}

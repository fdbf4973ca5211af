// Package tray shows the connection status in the system tray and offers
// the action menu.
package tray

import (
	"context"
	"sync"
	"time"

	"fyne.io/systray"

	"github.com/yllada/vpn-tray/action"
	"github.com/yllada/vpn-tray/common"
	"github.com/yllada/vpn-tray/events"
	"github.com/yllada/vpn-tray/status"
)

// Dispatcher runs actions by id. app.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(key string) error
	Paused() (bool, time.Time)
}

// Poller controls status polling. checker.Checker implements it.
type Poller interface {
	Active() bool
	SetActive(active bool)
	Current() status.ConnectionStatus
}

// MenuSource lays out the action menu. action.Catalog implements it.
type MenuSource interface {
	Menu() (items []action.Descriptor, groups []string, submenus map[string][]action.Descriptor)
}

// Indicator manages the system tray icon and menu.
type Indicator struct {
	mu         sync.Mutex
	menu       MenuSource
	dispatcher Dispatcher
	poller     Poller
	bus        *events.Bus
	log        common.Logger

	statusItem  *systray.MenuItem
	detailItems []*systray.MenuItem
	pollItem    *systray.MenuItem
	unsubscribe func()
}

// New creates the indicator. Nothing is shown until Run.
func New(menu MenuSource, dispatcher Dispatcher, poller Poller, bus *events.Bus, log common.Logger) *Indicator {
	if log == nil {
		log = common.NopLogger{}
	}
	return &Indicator{
		menu:       menu,
		dispatcher: dispatcher,
		poller:     poller,
		bus:        bus,
		log:        log,
	}
}

// Run shows the indicator and blocks until Quit is clicked or ctx is done.
func (t *Indicator) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			systray.Quit()
		case <-stop:
		}
	}()

	systray.Run(t.onReady, t.onExit)
	return nil
}

func (t *Indicator) onReady() {
	systray.SetTitle(common.AppName)

	t.mu.Lock()
	t.statusItem = systray.AddMenuItem("", "Current VPN status")
	t.statusItem.Disable()
	for i := 0; i < detailSlots; i++ {
		item := systray.AddMenuItem("", "")
		item.Disable()
		item.Hide()
		t.detailItems = append(t.detailItems, item)
	}
	t.mu.Unlock()

	systray.AddSeparator()
	t.addActions()
	systray.AddSeparator()

	t.onClick(systray.AddMenuItem("Check now", "Query the VPN status now"), func() {
		t.dispatch(action.IDCheckNow)
	})

	t.mu.Lock()
	t.pollItem = systray.AddMenuItemCheckbox("Polling", "Check the status periodically", t.poller.Active())
	t.mu.Unlock()
	t.onClick(t.pollItem, t.togglePolling)

	systray.AddSeparator()
	t.onClick(systray.AddMenuItem("Quit", "Close "+common.AppName), systray.Quit)

	t.render(t.poller.Current())
	t.unsubscribe = t.bus.StateChanged.Subscribe(func(ev events.StateChanged) {
		t.render(ev.Current)
	})
	t.log.Info("Tray indicator ready")
}

func (t *Indicator) onExit() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
	t.log.Info("Tray indicator cleanup completed")
}

// addActions adds the common actions, then one submenu per group.
func (t *Indicator) addActions() {
	items, groups, submenus := t.menu.Menu()
	for _, d := range items {
		t.onClick(systray.AddMenuItem(d.Title, d.Request().CommandLine()), t.handler(d.ID))
	}
	for _, group := range groups {
		parent := systray.AddMenuItem(group, "")
		for _, d := range submenus[group] {
			t.onClick(parent.AddSubMenuItem(d.Title, d.Request().CommandLine()), t.handler(d.ID))
		}
	}
}

// handler returns a click handler running id.
func (t *Indicator) handler(id string) func() {
	return func() { t.dispatch(id) }
}

func (t *Indicator) dispatch(id string) {
	if err := t.dispatcher.Dispatch(id); err != nil {
		t.log.Warn("Tray: %s failed: %v", id, err)
	}
	t.render(t.poller.Current())
}

func (t *Indicator) togglePolling() {
	active := !t.poller.Active()
	t.poller.SetActive(active)

	t.mu.Lock()
	if active {
		t.pollItem.Check()
	} else {
		t.pollItem.Uncheck()
	}
	t.mu.Unlock()
}

func (t *Indicator) onClick(item *systray.MenuItem, fn func()) {
	go func() {
		for range item.ClickedCh {
			fn()
		}
	}()
}

// render updates icon, tooltip and status rows.
func (t *Indicator) render(st status.ConnectionStatus) {
	var until time.Time
	if paused, at := t.dispatcher.Paused(); paused {
		until = at
	}

	systray.SetIcon(IconFor(st.State))
	systray.SetTooltip(Tooltip(st, until))

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.statusItem == nil {
		return
	}
	t.statusItem.SetTitle(Headline(st))
	rows := Details(st)
	for i, item := range t.detailItems {
		if i < len(rows) {
			item.SetTitle(rows[i])
			item.Show()
		} else {
			item.Hide()
		}
	}
}

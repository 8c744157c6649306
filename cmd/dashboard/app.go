package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/bulknepal/bulknepal/internal/apiclient"
	"github.com/bulknepal/bulknepal/internal/localstore"
	"github.com/bulknepal/bulknepal/internal/market"
	"github.com/bulknepal/bulknepal/internal/poller"
	"github.com/bulknepal/bulknepal/internal/viewstate"
)

type tab int

const (
	tabCompanies tab = iota
	tabOfferings
	tabMovers
	tabWatchlist
	tabCount
)

var tabNames = []string{"Companies", "IPOs", "Movers", "Watchlist"}

// Messages.
type stateMsg poller.State

type offeringsMsg struct {
	category string
	items    []market.Offering
	err      error
}

// Companies sort keys in "s" cycle order.
var companySortCycle = []string{
	viewstate.SortLTP,
	viewstate.SortChange,
	viewstate.SortChangePercent,
	viewstate.SortVolume,
	viewstate.SortTurnover,
}

var watchSortCycle = []string{
	viewstate.WatchSortName,
	viewstate.WatchSortLTP,
	viewstate.WatchSortChangePercent,
}

type app struct {
	client *apiclient.Client
	sync   *poller.Poller
	store  *localstore.Store
	cancel context.CancelFunc
	logger *zap.Logger

	updates     <-chan poller.State
	unsubscribe func()

	state poller.State

	activeTab tab
	selected  int

	// Companies.
	companies viewstate.Table
	sortIdx   int
	sectorIdx int
	query     string
	searching bool
	search    textinput.Model

	// Offerings, cached per category tab.
	offerTable   viewstate.Table
	offerCatIdx  int
	offerings    map[string][]market.Offering
	offerLoading bool
	offerErr     string

	// Movers.
	moversIdx int

	// Watchlist.
	watchSortIdx int
	watchDir     viewstate.Direction
	watchEntries []localstore.WatchlistEntry

	// Persisted view settings.
	visible []string
	recent  []localstore.RecentSearch

	// warn surfaces persistence failures without blocking the UI.
	warn string

	width, height int
	ready         bool
}

func newApp(client *apiclient.Client, sync *poller.Poller, store *localstore.Store, cancel context.CancelFunc, logger *zap.Logger) *app {
	updates, unsubscribe := sync.Subscribe()

	search := textinput.New()
	search.Placeholder = "search companies"
	search.CharLimit = 40

	m := &app{
		client:      client,
		sync:        sync,
		store:       store,
		cancel:      cancel,
		logger:      logger,
		updates:     updates,
		unsubscribe: unsubscribe,
		state:       sync.Current(),
		companies:   viewstate.NewCompanyTable(),
		offerTable:  viewstate.NewOfferingTable(),
		offerings:   make(map[string][]market.Offering),
		watchDir:    viewstate.Asc,
		search:      search,
	}

	m.reloadStore()
	return m
}

// reloadStore refreshes the persisted slices and records the first
// persistence failure for the footer.
func (m *app) reloadStore() {
	m.warn = ""

	entries, err := m.store.Watchlist()
	if err != nil {
		m.warn = "watchlist: " + err.Error()
	}
	m.watchEntries = entries

	recent, err := m.store.RecentSearches()
	if err != nil && m.warn == "" {
		m.warn = "recent searches: " + err.Error()
	}
	m.recent = recent

	visible, err := m.store.VisibleCategories()
	if err != nil && m.warn == "" {
		m.warn = "ticker categories: " + err.Error()
	}
	m.visible = visible
}

func waitForState(ch <-chan poller.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(state)
	}
}

func (m *app) offerCategory() string {
	return market.OfferingCategoryOrder[m.offerCatIdx]
}

func (m *app) loadOfferings(category string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		items, err := client.Offerings(context.Background(), category)
		return offeringsMsg{category: category, items: items, err: err}
	}
}

func (m *app) Init() tea.Cmd {
	return tea.Batch(waitForState(m.updates), m.loadOfferings(m.offerCategory()))
}

func (m *app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case stateMsg:
		m.state = poller.State(msg)
		m.clampSelection()
		return m, waitForState(m.updates)

	case offeringsMsg:
		m.offerLoading = false
		if msg.err != nil {
			m.offerErr = msg.err.Error()
			m.logger.Warn("offerings load failed",
				zap.String("category", msg.category),
				zap.Error(msg.err),
			)
			return m, nil
		}
		m.offerErr = ""
		m.offerings[msg.category] = msg.items
		return m, nil
	}

	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *app) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.unsubscribe()
		m.cancel()
		return m, tea.Quit

	case "tab":
		m.activeTab = (m.activeTab + 1) % tabCount
		m.selected = 0
		return m, m.ensureOfferings()
	case "shift+tab":
		m.activeTab = (m.activeTab + tabCount - 1) % tabCount
		m.selected = 0
		return m, m.ensureOfferings()
	case "1", "2", "3", "4":
		m.activeTab = tab(int(msg.String()[0] - '1'))
		m.selected = 0
		return m, m.ensureOfferings()

	case "/":
		if m.activeTab == tabCompanies {
			m.searching = true
			m.search.SetValue(m.query)
			m.search.Focus()
			return m, textinput.Blink
		}

	case "s":
		switch m.activeTab {
		case tabCompanies:
			if m.companies.SortKey != "" {
				m.sortIdx = (m.sortIdx + 1) % len(companySortCycle)
			}
			m.companies.ToggleSort(companySortCycle[m.sortIdx], viewstate.Desc)
			m.selected = 0
		case tabWatchlist:
			m.watchSortIdx = (m.watchSortIdx + 1) % len(watchSortCycle)
			m.watchDir = viewstate.Asc
		}
		return m, nil

	case "d":
		switch m.activeTab {
		case tabCompanies:
			if m.companies.SortKey != "" {
				m.companies.ToggleSort(m.companies.SortKey, viewstate.Desc)
			}
		case tabWatchlist:
			m.watchDir = m.watchDir.Flip()
		}
		return m, nil

	case "f":
		switch m.activeTab {
		case tabCompanies:
			sectors := m.sectorTabs()
			if len(sectors) > 0 {
				m.sectorIdx = (m.sectorIdx + 1) % len(sectors)
				m.companies.SetFilter(sectors[m.sectorIdx])
				m.selected = 0
			}
		case tabOfferings:
			m.offerCatIdx = (m.offerCatIdx + 1) % len(market.OfferingCategoryOrder)
			m.offerTable.SetFilter(m.offerCategory())
			m.selected = 0
			return m, m.ensureOfferings()
		case tabMovers:
			m.moversIdx = (m.moversIdx + 1) % len(viewstate.MoversTabs)
			m.selected = 0
		}
		return m, nil

	case "left":
		if t := m.activeTable(); t != nil && t.Page > 1 {
			t.Page--
			m.selected = 0
		}
		return m, nil
	case "right":
		if t := m.activeTable(); t != nil {
			t.Page++
			m.selected = 0
		}
		return m, nil

	case "up":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down":
		if m.selected < m.rowCount()-1 {
			m.selected++
		}
		return m, nil

	case " ":
		return m, m.toggleWatchSelected()

	case "R":
		if err := m.store.ClearRecentSearches(); err != nil {
			m.warn = "recent searches: " + err.Error()
		}
		m.reloadStore()
		return m, nil

	case "f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8":
		idx := int(msg.String()[1] - '1')
		if idx >= 0 && idx < len(localstore.CategoryKeys) {
			visible, err := m.store.ToggleCategory(localstore.CategoryKeys[idx])
			if err != nil {
				m.warn = "ticker categories: " + err.Error()
			} else {
				m.visible = visible
			}
		}
		return m, nil
	}

	return m, nil
}

func (m *app) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		m.query = strings.TrimSpace(m.search.Value())
		m.selected = 0
		m.recordSearch()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.query = ""
		m.search.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// recordSearch saves the first matching company as a recent search.
func (m *app) recordSearch() {
	if m.query == "" || m.state.Snapshot == nil {
		return
	}
	matches := filterCompanies(m.state.Snapshot.ListedCompanies, m.query)
	if len(matches) == 0 {
		return
	}

	hit := matches[0]
	err := m.store.AddRecentSearch(localstore.RecentSearch{
		Name:          hit.Name,
		SecurityName:  hit.Name,
		LTP:           hit.LTP,
		Change:        hit.Change,
		ChangePercent: hit.ChangePercent,
		Sector:        hit.Sector,
	})
	if err != nil {
		m.warn = "recent searches: " + err.Error()
	}
	m.reloadStore()
}

// ensureOfferings fetches the active category the first time its tab is
// shown. Already-cached categories are served from memory.
func (m *app) ensureOfferings() tea.Cmd {
	if m.activeTab != tabOfferings {
		return nil
	}
	category := m.offerCategory()
	if _, ok := m.offerings[category]; ok {
		return nil
	}
	if m.offerLoading {
		return nil
	}
	m.offerLoading = true
	return m.loadOfferings(category)
}

func (m *app) activeTable() *viewstate.Table {
	switch m.activeTab {
	case tabCompanies:
		return &m.companies
	case tabOfferings:
		return &m.offerTable
	}
	return nil
}

// filterCompanies keeps rows whose symbol or name contains the query.
func filterCompanies(items []market.TickerItem, query string) []market.TickerItem {
	if query == "" {
		return items
	}
	q := strings.ToUpper(query)
	out := make([]market.TickerItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToUpper(item.Symbol), q) ||
			strings.Contains(strings.ToUpper(item.Name), q) {
			out = append(out, item)
		}
	}
	return out
}

func (m *app) companyRows() []market.TickerItem {
	if m.state.Snapshot == nil {
		return nil
	}
	filtered := filterCompanies(m.state.Snapshot.ListedCompanies, m.query)
	return viewstate.CompanyRows(&m.companies, filtered)
}

func (m *app) offeringRows() []market.Offering {
	items := m.offerings[m.offerCategory()]
	return viewstate.OfferingRows(&m.offerTable, items)
}

func (m *app) moverRows() []market.TickerItem {
	return viewstate.MoverRows(m.state.Snapshot, viewstate.MoversTabs[m.moversIdx])
}

func (m *app) watchRows() []viewstate.WatchRow {
	var companies []market.TickerItem
	if m.state.Snapshot != nil {
		companies = m.state.Snapshot.ListedCompanies
	}
	rows := viewstate.BuildWatchlist(m.watchEntries, companies)
	return viewstate.SortWatchlist(rows, watchSortCycle[m.watchSortIdx], m.watchDir)
}

func (m *app) sectorTabs() []string {
	if m.state.Snapshot == nil {
		return []string{"All"}
	}
	return viewstate.Sectors(m.state.Snapshot.ListedCompanies)
}

func (m *app) rowCount() int {
	switch m.activeTab {
	case tabCompanies:
		return len(m.companyRows())
	case tabOfferings:
		return len(m.offeringRows())
	case tabMovers:
		return len(m.moverRows())
	case tabWatchlist:
		return len(m.watchRows())
	}
	return 0
}

func (m *app) clampSelection() {
	if count := m.rowCount(); m.selected >= count {
		m.selected = count - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// toggleWatchSelected flips watch state for the row under the cursor.
func (m *app) toggleWatchSelected() tea.Cmd {
	var entry localstore.WatchlistEntry

	switch m.activeTab {
	case tabCompanies:
		rows := m.companyRows()
		if m.selected >= len(rows) {
			return nil
		}
		hit := rows[m.selected]
		entry = localstore.WatchlistEntry{
			Symbol:       hit.Symbol,
			Name:         hit.Name,
			SecurityName: hit.Name,
			Sector:       hit.Sector,
		}
	case tabMovers:
		rows := m.moverRows()
		if m.selected >= len(rows) {
			return nil
		}
		hit := rows[m.selected]
		entry = localstore.WatchlistEntry{
			Symbol:       hit.Symbol,
			Name:         hit.Name,
			SecurityName: hit.Name,
			Sector:       hit.Sector,
		}
	case tabWatchlist:
		rows := m.watchRows()
		if m.selected >= len(rows) {
			return nil
		}
		entry = localstore.WatchlistEntry{
			Symbol:       rows[m.selected].Symbol,
			SecurityName: rows[m.selected].Name,
			Sector:       rows[m.selected].Sector,
		}
	default:
		return nil
	}

	if _, err := m.store.ToggleWatch(entry); err != nil {
		m.warn = "watchlist: " + err.Error()
	}
	m.reloadStore()
	m.clampSelection()
	return nil
}

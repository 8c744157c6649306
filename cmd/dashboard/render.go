package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bulknepal/bulknepal/internal/market"
	"github.com/bulknepal/bulknepal/internal/viewstate"
)

// Styles.
var (
	headerBarStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	openStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
	closedStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9"))
	tabActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	tabIdleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	symbolStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	watchMarkStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	colHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	highlightBG    = lipgloss.Color("236")
)

// hlStyle returns a copy of s with the highlight background applied when hl is true.
func hlStyle(s lipgloss.Style, hl bool) lipgloss.Style {
	if hl {
		return s.Background(highlightBG)
	}
	return s
}

func signedStyle(v float64) lipgloss.Style {
	switch {
	case v > 0:
		return gainStyle
	case v < 0:
		return lossStyle
	}
	return dimStyle
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline renders values as a fixed-height bar strip.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - lo) / span * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// padOrTrunc fits text to an exact column width. Width is measured in
// visible cells, not bytes, so styled multibyte text keeps its escape
// sequences intact when cut.
func padOrTrunc(s string, width int) string {
	if width <= 0 {
		return ""
	}
	n := lipgloss.Width(s)
	if n >= width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-n)
}

func (m *app) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTape())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.activeTab {
	case tabCompanies:
		b.WriteString(m.renderCompanies())
	case tabOfferings:
		b.WriteString(m.renderOfferings())
	case tabMovers:
		b.WriteString(m.renderMovers())
	case tabWatchlist:
		b.WriteString(m.renderWatchlist())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *app) renderHeader() string {
	statusTag := dimStyle.Render(" ··· ")
	if m.state.Status != nil {
		if m.state.Status.IsOpen {
			statusTag = openStyle.Render(" OPEN ")
		} else {
			statusTag = closedStyle.Render(" CLOSED ")
		}
	}

	index := "NEPSE --"
	spark := ""
	if snap := m.state.Snapshot; snap != nil {
		if p := snap.Primary(); p != nil {
			index = fmt.Sprintf("NEPSE %.2f  %+.2f (%+.2f%%)", p.Value, p.Change, p.ChangePercent)
		}
		var changes []float64
		for _, s := range snap.SubIndices {
			changes = append(changes, s.ChangePercent)
		}
		spark = sparkline(changes)

		ss := snap.StockSummary
		index += fmt.Sprintf("    adv %d  dec %d  unch %d", ss.Advanced, ss.Declined, ss.Unchanged)
	}

	loading := ""
	if m.state.Loading {
		loading = "  syncing..."
	}

	text := " BulkNepal  " + index + loading + "  "
	bar := headerBarStyle.Render(padOrTrunc(text, max(0, m.width-lipgloss.Width(statusTag)-lipgloss.Width(spark)-1)))
	return bar + dimStyle.Render(spark+" ") + statusTag
}

func (m *app) renderTape() string {
	if m.state.Snapshot == nil {
		return dimStyle.Render(" waiting for market data...")
	}

	entries := viewstate.BuildTape(m.state.Snapshot, m.visible)
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts,
			symbolStyle.Render(e.Name)+" "+
				fmt.Sprintf("%.2f ", e.Value)+
				signedStyle(e.ChangePercent).Render(fmt.Sprintf("%+.2f%%", e.ChangePercent)))
	}
	return padOrTrunc(" "+strings.Join(parts, dimStyle.Render("  │  ")), m.width)
}

func (m *app) renderTabs() string {
	parts := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf(" %d %s ", i+1, name)
		if tab(i) == m.activeTab {
			parts = append(parts, tabActiveStyle.Render(label))
		} else {
			parts = append(parts, tabIdleStyle.Render(label))
		}
	}
	return " " + strings.Join(parts, " ")
}

func (m *app) renderCompanies() string {
	var b strings.Builder

	filterLine := " sector: " + m.companies.Filter
	if m.companies.SortKey != "" {
		filterLine += "    sort: " + m.companies.SortKey + " " + string(m.companies.Dir)
	}
	if m.searching {
		filterLine += "    / " + m.search.View()
	} else if m.query != "" {
		filterLine += "    search: " + m.query
	}
	b.WriteString(dimStyle.Render(filterLine))
	b.WriteString("\n\n")

	b.WriteString(colHeaderStyle.Render(fmt.Sprintf(
		"   %-10s %-28s %10s %9s %8s %12s", "Symbol", "Name", "LTP", "Change", "Chg%", "Volume")))
	b.WriteString("\n")

	rows := m.companyRows()
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  (no matching companies)"))
		b.WriteString("\n")
	}
	for i, row := range rows {
		hl := i == m.selected
		mark := " "
		if m.store.Watched(row.Symbol) {
			mark = "*"
		}
		line := hlStyle(watchMarkStyle, hl).Render(" "+mark) +
			hlStyle(symbolStyle, hl).Render(fmt.Sprintf(" %-10s", row.Symbol)) +
			hlStyle(lipgloss.NewStyle(), hl).Render(fmt.Sprintf("%-28s", truncate(row.Name, 28))) +
			hlStyle(lipgloss.NewStyle(), hl).Render(fmt.Sprintf("%10.2f", row.LTP)) +
			hlStyle(signedStyle(row.Change), hl).Render(fmt.Sprintf("%9.2f", row.Change)) +
			hlStyle(signedStyle(row.ChangePercent), hl).Render(fmt.Sprintf("%7.2f%%", row.ChangePercent)) +
			hlStyle(dimStyle, hl).Render(fmt.Sprintf("%12.0f", row.Quantity))
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderPager(&m.companies, m.filteredCompanyCount()))

	if len(m.recent) > 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(" recent: "))
		names := make([]string, 0, len(m.recent))
		for _, r := range m.recent {
			names = append(names, r.Name)
		}
		b.WriteString(dimStyle.Render(strings.Join(names, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *app) filteredCompanyCount() int {
	if m.state.Snapshot == nil {
		return 0
	}
	filtered := filterCompanies(m.state.Snapshot.ListedCompanies, m.query)
	return len(viewstate.FilterBySector(filtered, m.companies.Filter))
}

func (m *app) renderOfferings() string {
	var b strings.Builder

	labels := make([]string, 0, len(market.OfferingCategoryOrder))
	for i, key := range market.OfferingCategoryOrder {
		label := market.OfferingCategoryLabels[key]
		if i == m.offerCatIdx {
			labels = append(labels, tabActiveStyle.Render(" "+label+" "))
		} else {
			labels = append(labels, tabIdleStyle.Render(" "+label+" "))
		}
	}
	b.WriteString(" " + strings.Join(labels, " "))
	b.WriteString("\n\n")

	if m.offerLoading {
		b.WriteString(dimStyle.Render("  loading offerings..."))
		b.WriteString("\n")
		return b.String()
	}
	if m.offerErr != "" {
		b.WriteString(errStyle.Render("  " + m.offerErr))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(colHeaderStyle.Render(fmt.Sprintf(
		"  %-10s %-30s %12s %10s %-12s %-12s", "Symbol", "Name", "Units", "Price", "Opens", "Closes")))
	b.WriteString("\n")

	rows := m.offeringRows()
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  (no open offerings in this category)"))
		b.WriteString("\n")
	}
	for i, o := range rows {
		hl := i == m.selected
		line := hlStyle(symbolStyle, hl).Render(fmt.Sprintf("  %-10s", o.Symbol)) +
			hlStyle(lipgloss.NewStyle(), hl).Render(fmt.Sprintf("%-30s", truncate(o.Name, 30))) +
			hlStyle(dimStyle, hl).Render(fmt.Sprintf("%12.0f", o.Units)) +
			hlStyle(lipgloss.NewStyle(), hl).Render(fmt.Sprintf("%10.2f", o.Price)) +
			hlStyle(dimStyle, hl).Render(fmt.Sprintf(" %-12s %-12s", o.OpeningDate, o.ClosingDate))
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	open := viewstate.OpenOfferings(m.offerings[m.offerCategory()])
	b.WriteString(m.renderPager(&m.offerTable, len(open)))
	return b.String()
}

func (m *app) renderMovers() string {
	var b strings.Builder

	labels := make([]string, 0, len(viewstate.MoversTabs))
	for i, name := range viewstate.MoversTabs {
		if i == m.moversIdx {
			labels = append(labels, tabActiveStyle.Render(" "+name+" "))
		} else {
			labels = append(labels, tabIdleStyle.Render(" "+name+" "))
		}
	}
	b.WriteString(" " + strings.Join(labels, " "))
	b.WriteString("\n\n")

	b.WriteString(colHeaderStyle.Render(fmt.Sprintf(
		"   %-10s %-28s %10s %8s %12s", "Symbol", "Name", "LTP", "Chg%", "Turnover")))
	b.WriteString("\n")

	rows := m.moverRows()
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  (no data)"))
		b.WriteString("\n")
	}
	for i, row := range rows {
		hl := i == m.selected
		mark := " "
		if m.store.Watched(row.Symbol) {
			mark = "*"
		}
		line := hlStyle(watchMarkStyle, hl).Render(" "+mark) +
			hlStyle(symbolStyle, hl).Render(fmt.Sprintf(" %-10s", row.Symbol)) +
			hlStyle(lipgloss.NewStyle(), hl).Render(fmt.Sprintf("%-28s", truncate(row.Name, 28))) +
			hlStyle(lipgloss.NewStyle(), hl).Render(fmt.Sprintf("%10.2f", row.LTP)) +
			hlStyle(signedStyle(row.ChangePercent), hl).Render(fmt.Sprintf("%7.2f%%", row.ChangePercent)) +
			hlStyle(dimStyle, hl).Render(fmt.Sprintf("%12.0f", row.Turnover))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *app) renderWatchlist() string {
	var b strings.Builder

	sortLine := fmt.Sprintf(" sort: %s %s", watchSortCycle[m.watchSortIdx], m.watchDir)
	b.WriteString(dimStyle.Render(sortLine))
	b.WriteString("\n\n")

	rows := m.watchRows()
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  watchlist is empty. press space on a company to add it"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(colHeaderStyle.Render(fmt.Sprintf(
		"  %-10s %-28s %10s %9s %8s", "Symbol", "Name", "LTP", "Change", "Chg%")))
	b.WriteString("\n")

	for i, row := range rows {
		hl := i == m.selected
		line := hlStyle(symbolStyle, hl).Render(fmt.Sprintf("  %-10s", row.Symbol)) +
			hlStyle(lipgloss.NewStyle(), hl).Render(fmt.Sprintf("%-28s", truncate(row.Name, 28))) +
			hlStyle(lipgloss.NewStyle(), hl).Render(fmt.Sprintf("%10.2f", row.LTP)) +
			hlStyle(signedStyle(row.Change), hl).Render(fmt.Sprintf("%9.2f", row.Change)) +
			hlStyle(signedStyle(row.ChangePercent), hl).Render(fmt.Sprintf("%7.2f%%", row.ChangePercent))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *app) renderPager(t *viewstate.Table, count int) string {
	total := viewstate.TotalPages(count, t.PageSize)
	return dimStyle.Render(fmt.Sprintf(" page %d/%d  (%d rows)", t.Page, total, count))
}

func (m *app) renderFooter() string {
	left := " q quit  1-4 tabs  f filter  s sort  d direction  / search  space watch  f1-f8 tape  R clear recent"

	right := ""
	switch {
	case m.state.Err != "":
		right = errStyle.Render(" " + m.state.Err + " ")
	case m.warn != "":
		right = warnStyle.Render(" " + m.warn + " ")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return footerStyle.Render(padOrTrunc(left+strings.Repeat(" ", gap), m.width-lipgloss.Width(right))) + right
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 3 {
		return ansi.Truncate(s, width, "")
	}
	return ansi.Truncate(s, width, "...")
}

package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateConfirmDelete
)

// OpenFormMsg asks the parent to open the transaction form. A nil Transaction
// opens an empty form.
type OpenFormMsg struct {
	Transaction *transaction.Transaction
}

// OpenExportMsg asks the parent to export the transactions matching Filter.
type OpenExportMsg struct {
	Filter transaction.ListFilter
}

type ListModel struct {
	CommonModel
	txService  *transaction.Service
	dirService *directory.Service

	state listState
	table table.Model
	page  *transaction.Page
	form  *huh.Form

	statuses   []*directory.Status
	types      []*directory.Type
	categories []*directory.Category

	// Filter cycling, 0 means no constraint
	statusIdx   int
	typeIdx     int
	categoryIdx int
	pageNumber  int

	confirmDelete *bool

	loading bool
	err     error
	status  string
}

func NewListModel(txSvc *transaction.Service, dirSvc *directory.Service) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 11},
		{Title: "Status", Width: 12},
		{Title: "Type", Width: 12},
		{Title: "Category", Width: 16},
		{Title: "Subcategory", Width: 16},
		{Title: "Amount", Width: 14},
		{Title: "Comment", Width: 30},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ListModel{
		txService:  txSvc,
		dirService: dirSvc,
		table:      t,
		pageNumber: 1,
		loading:    true,
	}
}

func (m ListModel) Title() string { return "Transactions" }

func (m ListModel) ShortHelp() string {
	if m.state == listStateConfirmDelete {
		return "←/→: choose | Enter: confirm | Esc: cancel"
	}

	return "Esc: back | a: add | e: edit | d: delete | s/t/c: filters | n/p: page | x: export | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return tea.Batch(m.loadChoicesCmd(), m.loadTxsCmd())
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadChoicesMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.statuses = msg.statuses
		m.types = msg.types

		return m, nil

	case loadCategoriesMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.categories = msg.categories

		return m, nil

	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.page = msg.page
		m.pageNumber = msg.page.Number
		m.refreshTable()

		return m, nil

	case deleteResultMsg:
		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error deleting: %v", msg.err)
			return m, nil
		}

		m.status = "Deleted."

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-10, 5))

		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, tea.Batch(m.loadChoicesCmd(), m.loadTxsCmd())
		case "a":
			return m, openForm(nil)
		case "e", "enter":
			if tx := m.selected(); tx != nil {
				return m, openForm(tx)
			}

			return m, nil
		case "d":
			return m.enterConfirmDelete()
		case "x":
			filter := m.filter()
			return m, func() tea.Msg { return OpenExportMsg{Filter: filter} }
		case "s":
			m.statusIdx = (m.statusIdx + 1) % (len(m.statuses) + 1)
			m.pageNumber = 1

			return m, m.loadTxsCmd()
		case "t":
			m.typeIdx = (m.typeIdx + 1) % (len(m.types) + 1)
			m.categoryIdx = 0
			m.categories = nil
			m.pageNumber = 1

			return m, tea.Batch(m.loadCategoriesCmd(), m.loadTxsCmd())
		case "c":
			m.categoryIdx = (m.categoryIdx + 1) % (len(m.categories) + 1)
			m.pageNumber = 1

			return m, m.loadTxsCmd()
		case "n", "right":
			if m.page != nil && m.page.HasNext() {
				m.pageNumber = m.page.Next()
				return m, m.loadTxsCmd()
			}

			return m, nil
		case "p", "left":
			if m.page != nil && m.page.HasPrev() {
				m.pageNumber = m.page.Prev()
				return m, m.loadTxsCmd()
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) enterConfirmDelete() (tea.Model, tea.Cmd) {
	tx := m.selected()
	if tx == nil {
		return m, nil
	}

	m.confirmDelete = new(false)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete the transaction of %s (%s)?", FormatDate(tx.Date), FormatAmount(tx.Amount))).
				Affirmative("Delete").
				Negative("Keep").
				Value(m.confirmDelete),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = listStateConfirmDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m ListModel) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !*m.confirmDelete {
		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	return m, m.deleteCmd(m.selected())
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | [t] Type: %s | [c] Category: %s",
		activeStyle(m.statusLabel()),
		activeStyle(m.typeLabel()),
		activeStyle(m.categoryLabel()),
	)

	footer := ""
	if m.page != nil {
		footer = fmt.Sprintf("Page %d of %d (%d total)", m.page.Number, m.page.TotalPages, m.page.Total)
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		lipgloss.NewStyle().Faint(true).Render(footer),
	)

	if m.state == listStateConfirmDelete && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m ListModel) statusLabel() string {
	if m.statusIdx == 0 || m.statusIdx > len(m.statuses) {
		return "All"
	}

	return m.statuses[m.statusIdx-1].Name
}

func (m ListModel) typeLabel() string {
	if m.typeIdx == 0 || m.typeIdx > len(m.types) {
		return "All"
	}

	return m.types[m.typeIdx-1].Name
}

func (m ListModel) categoryLabel() string {
	if m.categoryIdx == 0 || m.categoryIdx > len(m.categories) {
		return "All"
	}

	return m.categories[m.categoryIdx-1].Name
}

// filter builds the list criteria from the cycled selections.
func (m ListModel) filter() transaction.ListFilter {
	f := transaction.ListFilter{Page: m.pageNumber}

	if m.statusIdx > 0 && m.statusIdx <= len(m.statuses) {
		f.StatusID = new(m.statuses[m.statusIdx-1].ID)
	}

	if m.typeIdx > 0 && m.typeIdx <= len(m.types) {
		f.TypeID = new(m.types[m.typeIdx-1].ID)
	}

	if m.categoryIdx > 0 && m.categoryIdx <= len(m.categories) {
		f.CategoryID = new(m.categories[m.categoryIdx-1].ID)
	}

	return f
}

func (m ListModel) selected() *transaction.Transaction {
	if m.page == nil {
		return nil
	}

	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.page.Transactions) {
		return nil
	}

	return m.page.Transactions[idx]
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.page.Transactions))
	for _, tx := range m.page.Transactions {
		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			tx.Status,
			tx.Type,
			tx.Category,
			tx.Subcategory,
			FormatAmount(tx.Amount),
			tx.Comment,
		})
	}

	m.table.SetRows(rows)

	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func openForm(tx *transaction.Transaction) tea.Cmd {
	return func() tea.Msg { return OpenFormMsg{Transaction: tx} }
}

// Messages

type loadListMsg struct {
	page *transaction.Page
	err  error
}

type loadChoicesMsg struct {
	statuses []*directory.Status
	types    []*directory.Type
	err      error
}

type loadCategoriesMsg struct {
	categories []*directory.Category
	err        error
}

type deleteResultMsg struct {
	err error
}

func (m ListModel) loadTxsCmd() tea.Cmd {
	filter := m.filter()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		page, err := m.txService.List(ctx, filter)

		return loadListMsg{page: page, err: err}
	}
}

func (m ListModel) loadChoicesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		statuses, err := m.dirService.Statuses(ctx)
		if err != nil {
			return loadChoicesMsg{err: err}
		}

		types, err := m.dirService.Types(ctx)

		return loadChoicesMsg{statuses: statuses, types: types, err: err}
	}
}

func (m ListModel) loadCategoriesCmd() tea.Cmd {
	typeID := ""
	if m.typeIdx > 0 && m.typeIdx <= len(m.types) {
		typeID = directory.FormatID(m.types[m.typeIdx-1].ID)
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		categories, err := m.dirService.CategoriesForType(ctx, typeID)

		return loadCategoriesMsg{categories: categories, err: err}
	}
}

func (m ListModel) deleteCmd(tx *transaction.Transaction) tea.Cmd {
	if tx == nil {
		return nil
	}

	id := tx.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return deleteResultMsg{err: m.txService.Delete(ctx, id)}
	}
}

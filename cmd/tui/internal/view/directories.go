package view

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

type dirState int

const (
	dirStateBrowse dirState = iota
	dirStateEdit
	dirStateConfirmDelete
)

// entryItem wraps a directory entry to implement list.Item.
type entryItem struct {
	entry directory.Entry
}

func (i entryItem) FilterValue() string { return i.entry.Name }

// entryValues is bound to the add/edit form.
type entryValues struct {
	Name   string
	Parent string
}

type DirectoryModel struct {
	CommonModel
	dirService *directory.Service

	state   dirState
	kindIdx int
	list    list.Model
	form    *huh.Form

	editing *directory.Entry // nil when adding
	values  *entryValues
	confirm *bool

	status string
	err    error
}

func NewDirectoryModel(dirSvc *directory.Service) DirectoryModel {
	l := list.New([]list.Item{}, entryDelegate{}, 0, 0)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	m := DirectoryModel{
		dirService: dirSvc,
		list:       l,
	}
	m.list.Title = m.kind().Label()

	return m
}

func (m DirectoryModel) Title() string { return "Directories" }

func (m DirectoryModel) ShortHelp() string {
	switch m.state {
	case dirStateEdit:
		return "Esc: cancel | Enter/Tab: navigate form"
	case dirStateConfirmDelete:
		return "←/→: choose | Enter: confirm | Esc: cancel"
	}

	return "Esc: back | Tab: next directory | a: add | e: edit | d: delete | /: filter"
}

func (m DirectoryModel) kind() directory.Kind {
	return directory.Kinds[m.kindIdx]
}

func (m DirectoryModel) Init() tea.Cmd {
	return m.loadEntriesCmd()
}

func (m DirectoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadEntriesMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		if msg.kind != m.kind() {
			return m, nil
		}

		items := make([]list.Item, len(msg.entries))
		for i, e := range msg.entries {
			items[i] = entryItem{entry: e}
		}

		return m, m.list.SetItems(items)

	case entryFormMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.form = m.buildForm(msg.parents)
		m.state = dirStateEdit

		return m, m.form.Init()

	case saveEntryMsg:
		if msg.err == nil {
			m.state = dirStateBrowse
			m.form = nil
			m.status = "Saved."

			return m, m.loadEntriesCmd()
		}

		m.status = entryErrorText(msg.err)
		m.state = dirStateBrowse
		m.form = nil

		return m, nil

	case deleteEntryMsg:
		m.state = dirStateBrowse
		m.form = nil

		if msg.err != nil {
			m.status = entryErrorText(msg.err)
			return m, nil
		}

		m.status = "Deleted."

		return m, m.loadEntriesCmd()

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)

		return m, nil
	}

	switch m.state {
	case dirStateEdit, dirStateConfirmDelete:
		return m.updateForm(msg)
	}

	return m.updateBrowse(msg)
}

func (m DirectoryModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "esc":
			if m.list.FilterState() == list.FilterApplied {
				break // let the list clear the filter
			}

			return m, Back
		case "tab":
			m.kindIdx = (m.kindIdx + 1) % len(directory.Kinds)
			m.list.Title = m.kind().Label()
			m.list.ResetFilter()
			m.status = ""

			return m, tea.Batch(m.list.SetItems(nil), m.loadEntriesCmd())
		case "a":
			m.editing = nil
			m.values = &entryValues{}

			return m, m.loadParentsCmd()
		case "e":
			item, ok := m.list.SelectedItem().(entryItem)
			if !ok {
				return m, nil
			}

			m.editing = &item.entry
			m.values = &entryValues{Name: item.entry.Name, Parent: directory.FormatID(item.entry.ParentID)}

			return m, m.loadParentsCmd()
		case "d":
			return m.enterConfirmDelete()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m DirectoryModel) enterConfirmDelete() (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(entryItem)
	if !ok {
		return m, nil
	}

	m.editing = &item.entry
	m.confirm = new(false)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s %q?", strings.ToLower(m.kind().Label()), item.entry.Name)).
				Description("Its children are deleted with it.").
				Affirmative("Delete").
				Negative("Keep").
				Value(m.confirm),
		),
	).WithWidth(50).WithShowHelp(false)
	m.state = dirStateConfirmDelete

	return m, m.form.Init()
}

func (m DirectoryModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = dirStateBrowse
		m.form = nil

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == dirStateConfirmDelete {
		if !*m.confirm {
			m.state = dirStateBrowse
			m.form = nil

			return m, nil
		}

		return m, m.deleteCmd()
	}

	return m, m.saveCmd()
}

func (m DirectoryModel) buildForm(parents []directory.Entry) *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Key("name").
			Title("Name").
			CharLimit(directory.MaxNameLength).
			Value(&m.values.Name),
	}

	if parent, ok := m.kind().Parent(); ok {
		opts := []huh.Option[string]{huh.NewOption("---------", "")}
		for _, p := range parents {
			label := p.Name
			if p.ParentName != "" {
				label = fmt.Sprintf("%s (%s)", p.Name, p.ParentName)
			}

			opts = append(opts, huh.NewOption(label, directory.FormatID(p.ID)))
		}

		fields = append(fields, huh.NewSelect[string]().
			Key("parent").
			Title(parent.Label()).
			Options(opts...).
			Value(&m.values.Parent))
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(50).WithShowHelp(false)
}

func (m DirectoryModel) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	tabs := make([]string, len(directory.Kinds))
	for i, k := range directory.Kinds {
		tabs[i] = k.Label()
		if i == m.kindIdx {
			tabs[i] = activeStyle(tabs[i])
		}
	}

	content := strings.Join(tabs, " | ") + "\n\n" + m.list.View()

	if m.form != nil && m.state != dirStateBrowse {
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

// entryErrorText renders a failed save or delete for the status line.
func entryErrorText(err error) string {
	if errs, ok := validation.As(err); ok {
		parts := make([]string, len(errs))
		for i, fe := range errs {
			parts[i] = fmt.Sprintf("%s: %s", fe.Field, validation.Message(fe.Reason))
		}

		return errorStyle(strings.Join(parts, "; "))
	}

	switch {
	case errors.Is(err, directory.ErrDuplicateKey):
		return errorStyle(validation.Message(validation.ReasonDuplicate))
	case errors.Is(err, directory.ErrReferenced):
		return errorStyle("Cannot delete or move: transactions still reference this entry.")
	}

	return errorStyle(fmt.Sprintf("Error: %v", err))
}

// Messages

type loadEntriesMsg struct {
	kind    directory.Kind
	entries []directory.Entry
	err     error
}

type entryFormMsg struct {
	parents []directory.Entry
	err     error
}

type saveEntryMsg struct {
	err error
}

type deleteEntryMsg struct {
	err error
}

func (m DirectoryModel) loadEntriesCmd() tea.Cmd {
	kind := m.kind()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		entries, err := m.dirService.Entries(ctx, kind, nil)

		return loadEntriesMsg{kind: kind, entries: entries, err: err}
	}
}

func (m DirectoryModel) loadParentsCmd() tea.Cmd {
	parent, ok := m.kind().Parent()
	if !ok {
		return func() tea.Msg { return entryFormMsg{} }
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		parents, err := m.dirService.Entries(ctx, parent, nil)

		return entryFormMsg{parents: parents, err: err}
	}
}

func (m DirectoryModel) saveCmd() tea.Cmd {
	kind := m.kind()
	values := *m.values

	var id int64
	if m.editing != nil {
		id = m.editing.ID
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		parentID, _ := directory.ParseID(values.Parent)
		_, err := m.dirService.SaveEntry(ctx, kind, id, directory.EntryParams{Name: values.Name, ParentID: parentID})

		return saveEntryMsg{err: err}
	}
}

func (m DirectoryModel) deleteCmd() tea.Cmd {
	kind := m.kind()
	id := m.editing.ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return deleteEntryMsg{err: m.dirService.DeleteEntry(ctx, kind, id)}
	}
}

// entryDelegate renders entries with their parent.
type entryDelegate struct{}

func (d entryDelegate) Height() int                             { return 1 }
func (d entryDelegate) Spacing() int                            { return 0 }
func (d entryDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d entryDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(entryItem)
	if !ok {
		return
	}

	line := i.entry.Name
	if i.entry.ParentName != "" {
		line += lipgloss.NewStyle().Faint(true).Render("  " + i.entry.ParentName)
	}

	if index == m.Index() {
		line = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + i.entry.Name)
		if i.entry.ParentName != "" {
			line += lipgloss.NewStyle().Faint(true).Render("  " + i.entry.ParentName)
		}
	}

	fmt.Fprintf(w, "  %s", line)
}

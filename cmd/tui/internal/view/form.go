package view

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
	"github.com/MrJamesThe3rd/cashflow/internal/validation"
)

// FormModel creates or edits a single transaction. The category and
// subcategory choices are recomputed whenever the type or category changes.
type FormModel struct {
	CommonModel
	txService  *transaction.Service
	dirService *directory.Service

	id     int64 // 0 when creating
	values *transaction.Form
	form   *huh.Form

	statuses []huh.Option[string]
	types    []huh.Option[string]

	loading bool
	saving  bool
	errs    validation.Errors
	err     error
}

func NewFormModel(txSvc *transaction.Service, dirSvc *directory.Service, tx *transaction.Transaction) FormModel {
	m := FormModel{
		txService:  txSvc,
		dirService: dirSvc,
		values:     &transaction.Form{},
		loading:    true,
	}

	if tx != nil {
		m.id = tx.ID
		*m.values = transaction.FormFromTransaction(tx)
	}

	return m
}

func (m FormModel) Title() string {
	if m.id != 0 {
		return "Edit Transaction"
	}

	return "New Transaction"
}

func (m FormModel) ShortHelp() string {
	return "Esc: cancel | Enter/Tab: navigate form"
}

func (m FormModel) Init() tea.Cmd {
	return m.loadChoicesCmd()
}

func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case formChoicesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.statuses = msg.statuses
		m.types = msg.types
		m.form = m.buildForm()

		return m, m.form.Init()

	case formSaveMsg:
		m.saving = false

		if msg.err == nil {
			return m, Back
		}

		if errs, ok := validation.As(msg.err); ok {
			m.errs = errs
		} else if errors.Is(msg.err, transaction.ErrStaleHierarchy) {
			m.errs = validation.Errors{{Field: "subcategory", Reason: validation.ReasonInvalidChoice}}
		} else {
			m.err = msg.err
			return m, nil
		}

		// the bound values survive, so the rebuilt form keeps the input
		m.form = m.buildForm()

		return m, m.form.Init()
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	if m.form == nil || m.saving {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.saving = true
	m.errs = nil

	return m, m.saveCmd()
}

func (m FormModel) View() string {
	switch {
	case m.err != nil:
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)) + "\n\n(Esc to go back)")
	case m.loading:
		return lipgloss.NewStyle().Padding(2).Render("Loading...")
	case m.saving:
		return lipgloss.NewStyle().Padding(2).Render("Saving...")
	}

	content := m.form.View()

	if len(m.errs) > 0 {
		lines := make([]string, len(m.errs))
		for i, fe := range m.errs {
			lines[i] = fmt.Sprintf("%s: %s", fe.Field, validation.Message(fe.Reason))
		}

		content = errorStyle(strings.Join(lines, "\n")) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.NewStyle().Bold(true).Render(m.Title()) + "\n\n" + content,
	)
}

func (m FormModel) buildForm() *huh.Form {
	v := m.values

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("date").
				Title("Date").
				Description("YYYY-MM-DD, YYYY-MM-DD HH:MM or DD.MM.YYYY").
				Value(&v.Date),

			huh.NewSelect[string]().
				Key("status").
				Title("Status").
				Options(m.statuses...).
				Value(&v.Status),

			huh.NewSelect[string]().
				Key("type").
				Title("Type").
				Options(m.types...).
				Value(&v.Type),

			huh.NewSelect[string]().
				Key("category").
				Title("Category").
				OptionsFunc(func() []huh.Option[string] {
					return m.categoryOptions(v.Type)
				}, &v.Type).
				Value(&v.Category),

			huh.NewSelect[string]().
				Key("subcategory").
				Title("Subcategory").
				OptionsFunc(func() []huh.Option[string] {
					return m.subcategoryOptions(v.Category)
				}, &v.Category).
				Value(&v.Subcategory),

			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("0.00").
				Value(&v.Amount),

			huh.NewText().
				Key("comment").
				Title("Comment").
				Lines(3).
				Value(&v.Comment),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m FormModel) categoryOptions(typeID string) []huh.Option[string] {
	ctx, cancel := DbCtx()
	defer cancel()

	categories, err := m.dirService.CategoriesForType(ctx, typeID)
	if err != nil {
		return []huh.Option[string]{huh.NewOption("(failed to load)", "")}
	}

	opts := []huh.Option[string]{huh.NewOption("---------", "")}
	for _, c := range categories {
		opts = append(opts, huh.NewOption(c.Name, directory.FormatID(c.ID)))
	}

	return opts
}

func (m FormModel) subcategoryOptions(categoryID string) []huh.Option[string] {
	ctx, cancel := DbCtx()
	defer cancel()

	subcategories, err := m.dirService.SubcategoriesForCategory(ctx, categoryID)
	if err != nil {
		return []huh.Option[string]{huh.NewOption("(failed to load)", "")}
	}

	opts := []huh.Option[string]{huh.NewOption("---------", "")}
	for _, sc := range subcategories {
		opts = append(opts, huh.NewOption(sc.Name, directory.FormatID(sc.ID)))
	}

	return opts
}

// Messages

type formChoicesMsg struct {
	statuses []huh.Option[string]
	types    []huh.Option[string]
	err      error
}

type formSaveMsg struct {
	err error
}

func (m FormModel) loadChoicesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		statuses, err := m.dirService.Statuses(ctx)
		if err != nil {
			return formChoicesMsg{err: err}
		}

		types, err := m.dirService.Types(ctx)
		if err != nil {
			return formChoicesMsg{err: err}
		}

		msg := formChoicesMsg{
			statuses: []huh.Option[string]{huh.NewOption("---------", "")},
			types:    []huh.Option[string]{huh.NewOption("---------", "")},
		}
		for _, st := range statuses {
			msg.statuses = append(msg.statuses, huh.NewOption(st.Name, directory.FormatID(st.ID)))
		}

		for _, t := range types {
			msg.types = append(msg.types, huh.NewOption(t.Name, directory.FormatID(t.ID)))
		}

		return msg
	}
}

func (m FormModel) saveCmd() tea.Cmd {
	id := m.id
	f := *m.values

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var err error
		if id == 0 {
			_, err = m.txService.Create(ctx, f)
		} else {
			_, err = m.txService.Update(ctx, id, f)
		}

		return formSaveMsg{err: err}
	}
}

package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/cashflow/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/cashflow/internal/config"
	"github.com/MrJamesThe3rd/cashflow/internal/database"
	"github.com/MrJamesThe3rd/cashflow/internal/directory"
	dirStore "github.com/MrJamesThe3rd/cashflow/internal/directory/store"
	"github.com/MrJamesThe3rd/cashflow/internal/export"
	"github.com/MrJamesThe3rd/cashflow/internal/importer"
	"github.com/MrJamesThe3rd/cashflow/internal/transaction"
	txStore "github.com/MrJamesThe3rd/cashflow/internal/transaction/store"
)

type model struct {
	txService     *transaction.Service
	dirService    *directory.Service
	importService *importer.Service
	exportService *export.Service

	appName     string
	currentView View
	returnTo    View
	size        tea.WindowSizeMsg

	listView      view.ListModel
	formView      view.FormModel
	directoryView view.DirectoryModel
	importView    view.ImportModel
	exportView    view.ExportModel
}

type View int

const (
	ViewMenu      View = 0
	ViewList      View = 1
	ViewForm      View = 2
	ViewDirectory View = 3
	ViewImport    View = 4
	ViewExport    View = 5
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(cfg.ConnectionString()); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	dirSvc := directory.NewService(dirStore.New(db))
	txSvc := transaction.NewService(txStore.New(db), dirSvc)
	impSvc := importer.NewService(txSvc, dirSvc)
	expSvc := export.NewService(txSvc)

	return model{
		txService:     txSvc,
		dirService:    dirSvc,
		importService: impSvc,
		exportService: expSvc,
		appName:       cfg.App.Name,
		currentView:   ViewMenu,
		listView:      view.NewListModel(txSvc, dirSvc),
		directoryView: view.NewDirectoryModel(dirSvc),
		importView:    view.NewImportModel(impSvc),
		exportView:    view.NewExportModel(expSvc, transaction.ListFilter{}),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = msg
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.listView = view.NewListModel(m.txService, m.dirService)
				return m.open(ViewList, ViewMenu, m.listView.Init())
			case "2":
				m.formView = view.NewFormModel(m.txService, m.dirService, nil)
				return m.open(ViewForm, ViewMenu, m.formView.Init())
			case "3":
				m.directoryView = view.NewDirectoryModel(m.dirService)
				return m.open(ViewDirectory, ViewMenu, m.directoryView.Init())
			case "4":
				m.importView = view.NewImportModel(m.importService)
				return m.open(ViewImport, ViewMenu, m.importView.Init())
			case "5":
				m.exportView = view.NewExportModel(m.exportService, transaction.ListFilter{})
				return m.open(ViewExport, ViewMenu, m.exportView.Init())
			}
		}
	case view.OpenFormMsg:
		m.formView = view.NewFormModel(m.txService, m.dirService, msg.Transaction)
		return m.open(ViewForm, ViewList, m.formView.Init())
	case view.OpenExportMsg:
		m.exportView = view.NewExportModel(m.exportService, msg.Filter)
		return m.open(ViewExport, ViewList, m.exportView.Init())
	case view.BackMsg:
		if m.returnTo == ViewList && m.currentView != ViewList {
			m.currentView = ViewList
			m.returnTo = ViewMenu

			return m, m.listView.Init()
		}

		m.currentView = ViewMenu
		m.returnTo = ViewMenu

		return m, nil
	}

	switch m.currentView {
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewForm:
		var newModel tea.Model
		newModel, cmd = m.formView.Update(msg)
		m.formView = newModel.(view.FormModel)
	case ViewDirectory:
		var newModel tea.Model
		newModel, cmd = m.directoryView.Update(msg)
		m.directoryView = newModel.(view.DirectoryModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

// open switches to v and replays the last window size so the new screen can lay itself out.
func (m model) open(v, returnTo View, initCmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.currentView = v
	m.returnTo = returnTo

	if m.size.Width == 0 {
		return m, initCmd
	}

	size := m.size

	return m, tea.Batch(initCmd, func() tea.Msg { return size })
}

func (m model) View() string {
	var screen view.View

	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			m.appName + "\n\n" +
				"1. Transactions\n" +
				"2. Add Transaction\n" +
				"3. Directories\n" +
				"4. Import Transactions\n" +
				"5. Export Transactions\n\n" +
				"q. Quit",
		)
	case ViewList:
		screen = m.listView
	case ViewForm:
		screen = m.formView
	case ViewDirectory:
		screen = m.directoryView
	case ViewImport:
		screen = m.importView
	case ViewExport:
		screen = m.exportView
	default:
		return "Unknown View"
	}

	help := lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(screen.ShortHelp())

	return screen.View() + "\n" + help
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}

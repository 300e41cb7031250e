// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"pdf-marker/internal/app"
	"pdf-marker/internal/editor"
	"pdf-marker/internal/version"
	"pdf-marker/ui/canvas"
	"pdf-marker/ui/dialogs"
	"pdf-marker/ui/panels"
	"pdf-marker/ui/prefs"
)

const appTitle = "PDF Marker"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.AnnotationCanvas
	toolPanel *panels.ToolPanel
	statusBar *widget.Label
	pageLabel *widget.Label
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewAnnotationCanvas(mw.state)
	mw.toolPanel = panels.NewToolPanel(mw.state, mw.prefs)
	mw.statusBar = widget.NewLabel("Ready")
	mw.pageLabel = widget.NewLabel("Page -/-")

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar, // top
		nil,     // bottom
		nil,     // left
		nil,     // right
		mw.canvas.Container(),
	)

	split := container.NewHSplit(
		mw.toolPanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.18)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil,
		nil,
		split,
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1200, 850))
}

// createToolbar creates the toolbar with page and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	prevBtn := widget.NewButton("<", func() { mw.state.View.PrevPage() })
	nextBtn := widget.NewButton(">", func() { mw.state.View.NextPage() })
	zoomOutBtn := widget.NewButton("-", func() { mw.state.View.ZoomOut() })
	zoomInBtn := widget.NewButton("+", func() { mw.state.View.ZoomIn() })
	actualBtn := widget.NewButton("1:1", func() { mw.state.View.SetZoom(1.0) })

	return container.NewHBox(
		prevBtn,
		mw.pageLabel,
		nextBtn,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		actualBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open PDF...", mw.onOpenPDF),
		fyne.NewMenuItem("Open Session...", mw.onOpenSession),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Session", mw.onSaveSession),
		fyne.NewMenuItem("Save Session As...", mw.onSaveSessionAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Flattened PDF...", mw.onExport),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Close Document", mw.onCloseDocument),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Redo", mw.onRedo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete Selected", mw.onDeleteSelected),
		fyne.NewMenuItem("Deselect", func() { mw.state.Editor.Escape() }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.state.View.ZoomIn() }),
		fyne.NewMenuItem("Zoom Out", func() { mw.state.View.ZoomOut() }),
		fyne.NewMenuItem("Actual Size", func() { mw.state.View.SetZoom(1.0) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Next Page", func() { mw.state.View.NextPage() }),
		fyne.NewMenuItem("Previous Page", func() { mw.state.View.PrevPage() }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu))
}

// setupShortcuts wires the keyboard: modifier chords through the Fyne
// shortcut registry, Delete/Escape and the single-letter tool keys
// through the typed-key hooks (which only fire when no entry widget has
// focus, so typing text never switches tools).
func (mw *MainWindow) setupShortcuts() {
	c := mw.Canvas()

	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl},
		func(fyne.Shortcut) { mw.onUndo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl},
		func(fyne.Shortcut) { mw.onRedo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl | fyne.KeyModifierShift},
		func(fyne.Shortcut) { mw.onRedo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl},
		func(fyne.Shortcut) { mw.onSaveSession() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl},
		func(fyne.Shortcut) { mw.onOpenPDF() })

	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.onDeleteSelected()
		case fyne.KeyEscape:
			mw.state.Editor.Escape()
		case fyne.KeyPageDown:
			mw.state.View.NextPage()
		case fyne.KeyPageUp:
			mw.state.View.PrevPage()
		}
	})

	c.SetOnTypedRune(func(r rune) {
		if tool, ok := editor.ToolForKey(r); ok {
			mw.state.Editor.SetTool(tool)
		}
	})
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventDocumentLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus(fmt.Sprintf("Loaded %s (%d pages)", filepath.Base(path), mw.state.Doc.PageCount()))
		}
		mw.updatePageLabel()
	})

	mw.state.On(app.EventDocumentClosed, func(interface{}) {
		mw.SetTitle(appTitle)
		mw.updateStatus("Document closed")
		mw.updatePageLabel()
	})

	mw.state.On(app.EventPageChanged, func(interface{}) {
		mw.updatePageLabel()
	})

	mw.state.On(app.EventZoomChanged, func(data interface{}) {
		if zoom, ok := data.(float64); ok {
			mw.updateStatus(fmt.Sprintf("Zoom %.0f%%", zoom*100))
		}
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if !strings.HasSuffix(title, "*") {
				mw.SetTitle(title + " *")
			}
		}
	})

	mw.state.On(app.EventToolChanged, func(data interface{}) {
		if t, ok := data.(editor.Tool); ok {
			mw.updateStatus("Tool: " + t.String())
		}
	})

	mw.state.On(app.EventModalRequested, func(data interface{}) {
		if t, ok := data.(editor.Tool); ok {
			dialogs.ShowForTool(mw.Window, mw.state.Editor, t)
		}
	})

	mw.state.On(app.EventTextEditRequested, func(data interface{}) {
		id, ok := data.(string)
		if !ok {
			return
		}
		initial := ""
		if a := mw.state.Editor.Collection().ByID(id); a != nil {
			initial = a.Text
		}
		dialogs.ShowTextEditor(mw.Window, mw.state.Editor, initial)
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

func (mw *MainWindow) updatePageLabel() {
	if !mw.state.Doc.IsOpen() {
		mw.pageLabel.SetText("Page -/-")
		return
	}
	mw.pageLabel.SetText(fmt.Sprintf("Page %d/%d", mw.state.View.CurrentPage(), mw.state.View.PageCount()))
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDir, filepath.Dir(filePath))
	if err := mw.prefs.Save(); err != nil {
		log.Printf("saving preferences: %v", err)
	}
}

// Menu action handlers

func (mw *MainWindow) onOpenPDF() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		mw.prefs.SetString(prefs.KeyLastFile, path)
		if err := mw.state.OpenDocument(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenSession() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadSession(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".pdfmark"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveSession() {
	if mw.state.SessionPath == "" {
		mw.onSaveSessionAs()
		return
	}
	if err := mw.state.SaveSession(mw.state.SessionPath); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Session saved")
}

func (mw *MainWindow) onSaveSessionAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".pdfmark" {
			path += ".pdfmark"
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveSession(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Session saved")
	}, mw.Window)
	fd.SetFileName("markup.pdfmark")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// onExport flattens the annotations through the export service and
// saves the result where the user chooses. The request runs off the UI
// goroutine; a failure changes nothing locally.
func (mw *MainWindow) onExport() {
	if !mw.state.Doc.IsOpen() {
		mw.updateStatus("Nothing to export")
		return
	}

	pdf := mw.state.Doc.Bytes()
	name := mw.state.Doc.Name()
	anns := mw.state.Editor.Collection()
	scale := mw.state.ContentScale()

	mw.updateStatus("Exporting...")
	go func() {
		result, err := mw.state.Export.Flatten(context.Background(), pdf, name, anns, scale)
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, mw.Window)
				mw.updateStatus("Export failed")
				return
			}
			mw.state.Emit(app.EventExportComplete, result)
			if result.Identity {
				mw.updateStatus("No annotations: document unchanged")
				return
			}
			mw.updateStatus(fmt.Sprintf("Flattened %d annotations", result.AnnotationsApplied))
			mw.promptDownload(result.DownloadURL, result.Filename)
		})
	}()
}

// promptDownload asks where to store the flattened file, then fetches
// it.
func (mw *MainWindow) promptDownload(downloadURL, filename string) {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		dest := writer.URI().Path()
		go func() {
			err := mw.state.Export.Download(context.Background(), downloadURL, dest)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, mw.Window)
					return
				}
				mw.updateStatus("Saved " + dest)
			})
		}()
	}, mw.Window)
	fd.SetFileName(filename)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onCloseDocument() {
	if mw.state.IsModified() {
		dialog.ShowConfirm("Unsaved Changes",
			"The markup has unsaved changes. Close anyway?",
			func(ok bool) {
				if ok {
					mw.state.CloseDocument()
				}
			}, mw.Window)
		return
	}
	mw.state.CloseDocument()
}

func (mw *MainWindow) onUndo() {
	mw.state.Editor.Undo()
	mw.canvas.Refresh()
}

func (mw *MainWindow) onRedo() {
	mw.state.Editor.Redo()
	mw.canvas.Refresh()
}

func (mw *MainWindow) onDeleteSelected() {
	mw.state.Editor.DeleteSelected()
	mw.canvas.Refresh()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"A desktop PDF markup editor.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

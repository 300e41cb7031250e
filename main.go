// Package main provides the entry point for the PDF Marker application.
package main

import (
	"log"
	"os"
	"time"

	fyneapp "fyne.io/fyne/v2/app"

	"pdf-marker/internal/app"
	"pdf-marker/internal/rasterizer"
	"pdf-marker/internal/version"
	"pdf-marker/internal/viewport"
	"pdf-marker/ui/mainwindow"
	"pdf-marker/ui/prefs"
)

const appTitle = "PDF Marker"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	fyneApp := fyneapp.NewWithID("pdf-marker")

	ras, err := rasterizer.NewPdfium()
	if err != nil {
		log.Fatalf("Failed to start PDF engine: %v", err)
	}

	appPrefs := prefs.Load()
	exportURL := appPrefs.StringWithFallback(prefs.KeyExportURL, prefs.DefaultExportURL)

	win := (*mainwindow.MainWindow)(nil)
	env := viewport.EnvironmentFunc(func() float64 {
		if win == nil {
			return 1
		}
		return float64(win.Canvas().Scale())
	})

	appState := app.NewState(ras, env, exportURL)
	defer appState.Shutdown()

	win = mainwindow.New(fyneApp, appState, appPrefs)

	// Handle command line arguments
	if len(os.Args) > 1 {
		path := os.Args[1]
		if err := appState.OpenDocument(path); err != nil {
			log.Printf("Failed to open %s: %v", path, err)
		}
	}

	setupHotReload(win, appPrefs)

	win.ShowAndRun()
}

// setupHotReload configures automatic restart detection when the binary
// is recompiled.
func setupHotReload(win *mainwindow.MainWindow, appPrefs *prefs.Prefs) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected, restarting")
		if err := appPrefs.Save(); err != nil {
			log.Printf("Hot reload: saving preferences failed: %v", err)
		}
		if err := reloader.Restart(); err != nil {
			log.Printf("Hot reload: restart failed: %v", err)
			reloader.ResetBaseline()
			reloader.Start()
		}
	})

	reloader.Start()
}

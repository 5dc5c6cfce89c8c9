//go:build gui

package main

import (
	"fmt"
	"os"
	"runtime"

	"uvhotkey/gui"
	"uvhotkey/log"
	"uvhotkey/tray"
)

var guiApp *gui.App

func initGUI() {
	if err := rootCmd.ParseFlags(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Lock this goroutine to OS thread for Fyne/GLFW
	runtime.LockOSThread()

	guiApp = gui.NewApp(tray.IconPNG(), func() {
		d, err := startDaemon(nil, guiApp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			guiApp.Quit()
			return
		}
		guiApp.Attach(gui.Controller{
			Registry:   d.reg,
			ScriptsDir: d.paths.ScriptsDir(),
			OpenLogs:   d.openLogs,
		})
		d.publish()
		<-d.ctx.Done()
		d.close()
		guiApp.Quit()
	})
	if err := gui.Run(guiApp); err != nil {
		log.Errorf("gui: %v", err)
		os.Exit(1)
	}
}

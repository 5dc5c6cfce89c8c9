package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"uvhotkey/config"
	"uvhotkey/hotkey"
	"uvhotkey/launch"
	"uvhotkey/log"
	"uvhotkey/registry"
	"uvhotkey/shutdown"
	"uvhotkey/tray"
)

// bgEnv marks the detached child started by --tui=false.
const bgEnv = "_UVHOTKEY_BG"

type daemon struct {
	app
	reg      *registry.Registry
	listener hotkey.Listener
	sink     sinks
	ctx      context.Context
	stop     context.CancelFunc
}

// startDaemon loads the bindings, hooks them and starts the config
// watcher. It returns once everything is registered; ctx is cancelled on
// a termination signal or stop.
func startDaemon(console io.Writer, extra ...EventSink) (*daemon, error) {
	a, err := resolveApp()
	if err != nil {
		return nil, err
	}
	if err := log.Init(console); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	initCrashLog(a.paths.LogsDir())
	log.SessionStart(version, a.paths.Dir)

	d := &daemon{app: a, listener: hotkey.New(), sink: sinks(extra)}
	d.reg = a.newRegistry(d.listener,
		func(ev registry.LaunchEvent) { d.sink.Launched(ev) },
		d.publish,
	)
	// Load already logged a corrupt file; start empty like a fresh install.
	d.reg.Load()
	d.reg.RegisterAll()

	d.ctx, d.stop = shutdown.Context(context.Background())
	if watchFlag {
		go func() {
			err := config.Watch(d.ctx, a.paths.ConfigFile(), func() { d.reg.Reload() })
			if err != nil {
				log.Warnf("config watcher stopped: %v", err)
			}
		}()
	}
	return d, nil
}

func (d *daemon) publish() {
	d.sink.BindingsChanged(d.reg.Bindings(), d.reg.Registered())
}

func (d *daemon) openLogs() error {
	return launch.OpenPath(launch.Exec{}, d.paths.LogsDir())
}

func (d *daemon) startTray() {
	tray.OnEditConfig(func() {
		if err := launch.OpenPath(launch.Exec{}, d.paths.ConfigFile()); err != nil {
			log.Warnf("open config: %v", err)
		}
	})
	tray.OnOpenLogs(func() {
		if err := d.openLogs(); err != nil {
			log.Warnf("open logs: %v", err)
		}
	})
	tray.OnReload(func() { d.reg.Reload() })

	trayQuit := tray.Init()
	go func() {
		select {
		case <-trayQuit:
			d.stop()
		case <-d.ctx.Done():
		}
	}()
}

func (d *daemon) close() {
	d.stop()
	d.listener.Close()
	log.Info("session_end")
	log.Close()
}

func runDaemon() error {
	if guiFlag {
		return errors.New("built without GUI support (rebuild with -tags gui)")
	}
	if !tuiFlag && os.Getenv(bgEnv) == "" {
		return daemonize()
	}

	interactive := tuiFlag && term.IsTerminal(int(os.Stdout.Fd()))
	var console io.Writer
	if !interactive && os.Getenv(bgEnv) == "" {
		console = os.Stderr
	}

	var extra []EventSink
	if interactive {
		extra = append(extra, tuiSink{})
	}
	if trayFlag {
		extra = append(extra, traySink{})
	}
	d, err := startDaemon(console, extra...)
	if err != nil {
		return err
	}
	defer d.close()

	if trayFlag {
		d.startTray()
		defer tray.Stop()
	}

	if !interactive {
		d.publish()
		<-d.ctx.Done()
		return nil
	}

	p := NewTUIProgram(tuiActions{
		run:      func(i int) { d.reg.LaunchAt(i) },
		reload:   d.reg.Reload,
		openLogs: d.openLogs,
		dataDir:  d.paths.Dir,
	})
	setTUIProgram(p)
	go func() {
		<-d.ctx.Done()
		p.Quit()
	}()
	go d.publish()
	_, err = p.Run()
	return err
}

// daemonize re-execs the current command line detached from the terminal
// and returns, giving the shell prompt back.
func daemonize() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	proc, err := launch.Exec{}.Spawn(launch.Command{
		Path: exe,
		Args: os.Args[1:],
		Env:  append(os.Environ(), bgEnv+"=1"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("uv-hotkey running in background (pid %d)\n", proc.Pid())
	return nil
}

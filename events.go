package main

import (
	"fmt"

	"uvhotkey/config"
	"uvhotkey/registry"
	"uvhotkey/tray"
)

// EventSink abstracts the display layer so the Bubble Tea TUI, the Fyne
// manager and the tray icon receive the same registry events.
type EventSink interface {
	BindingsChanged(bindings []config.Binding, registered int)
	Launched(ev registry.LaunchEvent)
}

type sinks []EventSink

func (s sinks) BindingsChanged(bindings []config.Binding, registered int) {
	for _, x := range s {
		x.BindingsChanged(bindings, registered)
	}
}

func (s sinks) Launched(ev registry.LaunchEvent) {
	for _, x := range s {
		x.Launched(ev)
	}
}

func activeCount(bindings []config.Binding) int {
	n := 0
	for _, b := range bindings {
		if b.Active() {
			n++
		}
	}
	return n
}

type traySink struct{}

func (traySink) BindingsChanged(bindings []config.Binding, registered int) {
	tray.SetStatus(registered, activeCount(bindings))
}

func (traySink) Launched(ev registry.LaunchEvent) {
	if ev.Err != nil {
		tray.SetError(fmt.Sprintf("%s failed", ev.Binding.Name))
		return
	}
	tray.SetLastLaunch(ev.Binding.Name, ev.At)
}

//go:build linux

package main

func main() {
	if hasGUIArg() {
		initGUI()
		return
	}
	run()
}

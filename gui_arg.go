package main

import "os"

func hasGUIArg() bool {
	for _, arg := range os.Args[1:] {
		if arg == "-gui" || arg == "--gui" || arg == "--gui=true" {
			return true
		}
	}
	return false
}

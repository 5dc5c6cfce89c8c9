//go:build !darwin && !linux && !windows

package login

func Enabled() bool      { return false }
func Enable(Entry) error { return ErrUnsupported }
func Disable() error     { return nil }
func Location() string   { return "" }

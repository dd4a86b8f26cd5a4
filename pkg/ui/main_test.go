package ui

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// Keep saved export settings out of the developer's home.
	dir, err := os.MkdirTemp("", "globe-ui-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("XDG_CONFIG_HOME", dir)
	os.Setenv("GLOBE_ROBOT", "1")

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

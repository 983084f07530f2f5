package main

import (
	"os"
	"testing"

	"fortio.org/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"hiccup": Main,
	}))
}

func TestHiccupCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{Dir: "testdata"})
}

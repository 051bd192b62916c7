package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"run":      false,
		"settings": false,
		"version":  false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRunFlags(t *testing.T) {
	for _, flag := range []string{"root", "dry-run", "skip", "debug"} {
		if runCmd.Flags().Lookup(flag) == nil {
			t.Errorf("run command missing --%s", flag)
		}
	}
}

func TestHelpIncludesGroups(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	defer rootCmd.SetOut(nil)

	customHelpFunc(rootCmd, nil)

	help := out.String()
	for _, section := range []string{"Publication:", "Configuration:", "Usage:"} {
		if !strings.Contains(help, section) {
			t.Errorf("help output missing %q", section)
		}
	}
}

func TestPrintCount(t *testing.T) {
	if got := PrintCount(1, "file", "files"); got != "1 file" {
		t.Errorf("PrintCount(1) = %q", got)
	}
	if got := PrintCount(3, "file", "files"); got != "3 files" {
		t.Errorf("PrintCount(3) = %q", got)
	}
}

func TestMask(t *testing.T) {
	if got := mask("abc"); got != "****" {
		t.Errorf("mask short = %q", got)
	}
	if got := mask("supersecret"); got != "su****et" {
		t.Errorf("mask = %q", got)
	}
}

package bot

import "testing"

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	cmd, args, ok := p.ParseCommand("/start")
	if !ok || cmd != "start" || len(args) != 0 {
		t.Errorf("ParseCommand(/start) = %q %v %v", cmd, args, ok)
	}

	cmd, args, ok = p.ParseCommand("/login hunter2")
	if !ok || cmd != "login" || len(args) != 1 || args[0] != "hunter2" {
		t.Errorf("ParseCommand(/login hunter2) = %q %v %v", cmd, args, ok)
	}

	cmd, _, ok = p.ParseCommand("  /MENU  ")
	if !ok || cmd != "menu" {
		t.Errorf("commands should be trimmed and lower-cased, got %q %v", cmd, ok)
	}

	if _, _, ok := p.ParseCommand("hello"); ok {
		t.Error("plain text is not a command")
	}
	if _, _, ok := p.ParseCommand("/"); ok {
		t.Error("a bare slash is not a command")
	}

	// Credential inputs parse as commands and fall through to the state flows.
	cmd, _, ok = p.ParseCommand("/kambing-12")
	if !ok || cmd != "kambing-12" {
		t.Errorf("ParseCommand(/kambing-12) = %q %v", cmd, ok)
	}
}

func TestParseGameDuration(t *testing.T) {
	game, days, ok := parseGameDuration("ffmax_7")
	if !ok || game != "ffmax" || days != 7 {
		t.Errorf("parseGameDuration(ffmax_7) = %q %d %v", game, days, ok)
	}
	game, days, ok = parseGameDuration("ff_30")
	if !ok || game != "ff" || days != 30 {
		t.Errorf("parseGameDuration(ff_30) = %q %d %v", game, days, ok)
	}
	if _, _, ok := parseGameDuration("nounderscore"); ok {
		t.Error("missing separator should not parse")
	}
	if _, _, ok := parseGameDuration("ff_x"); ok {
		t.Error("non-numeric days should not parse")
	}
}

package sampleparser

import (
	"testing"

	"aprsbot/dispatch"
)

func TestParseExactKeyword(t *testing.T) {
	p := New()
	status, errString, obj := p.Parse("greetings", "DF1JSL-1")
	if status != dispatch.ParseOK {
		t.Fatalf("status = %v, want ParseOK", status)
	}
	if errString != "" {
		t.Errorf("errString = %q, want empty", errString)
	}
	resp, ok := obj.(Response)
	if !ok || resp.Command != "greetings" || resp.FromCallsign != "DF1JSL-1" {
		t.Errorf("unexpected response object: %#v", obj)
	}
}

func TestParseToleratesSingleTypo(t *testing.T) {
	p := New()
	status, _, obj := p.Parse("pinh", "DF1JSL-1") // one substitution from "ping"
	if status != dispatch.ParseOK {
		t.Fatalf("status = %v, want ParseOK", status)
	}
	resp := obj.(Response)
	if resp.Command != "ping" {
		t.Errorf("Command = %q, want ping", resp.Command)
	}
}

func TestParseErrorKeywordTriggersError(t *testing.T) {
	p := New()
	status, errString, _ := p.Parse("error", "DF1JSL-1")
	if status != dispatch.ParseError {
		t.Fatalf("status = %v, want ParseError", status)
	}
	if errString != "Triggered input processor error" {
		t.Errorf("errString = %q", errString)
	}
}

func TestParseUnrecognizedCommand(t *testing.T) {
	p := New()
	status, errString, _ := p.Parse("xyzxyz", "DF1JSL-1")
	if status != dispatch.ParseError {
		t.Fatalf("status = %v, want ParseError", status)
	}
	if errString != "unrecognized command: xyzxyz" {
		t.Errorf("errString = %q", errString)
	}
}

func TestParseEmptyTextIgnored(t *testing.T) {
	p := New()
	status, _, obj := p.Parse("   ", "DF1JSL-1")
	if status != dispatch.ParseIgnore {
		t.Fatalf("status = %v, want ParseIgnore", status)
	}
	if obj != nil {
		t.Errorf("obj = %#v, want nil", obj)
	}
}

func TestParseIsCaseInsensitive(t *testing.T) {
	p := New()
	status, _, obj := p.Parse("VERSION", "DF1JSL-1")
	if status != dispatch.ParseOK {
		t.Fatalf("status = %v, want ParseOK", status)
	}
	if obj.(Response).Command != "version" {
		t.Errorf("Command = %q, want version", obj.(Response).Command)
	}
}

package main

import (
	"testing"

	"github.com/tjfontaine/polyglot-agent/internal/config"
	"github.com/tjfontaine/polyglot-agent/internal/hooks"
)

func TestFillSession(t *testing.T) {
	a := &app{cfg: &config.Config{Session: config.SessionConfig{ID: "s-1", TranscriptPath: "/tmp/t.jsonl"}}}

	p := hooks.RawPayload{"session_id": "given", "tool_name": "write_file"}
	a.fillSession(p)

	if p["session_id"] != "given" {
		t.Errorf("session_id = %v, payload value must win", p["session_id"])
	}
	if p["transcript_path"] != "/tmp/t.jsonl" {
		t.Errorf("transcript_path = %v", p["transcript_path"])
	}
}

func TestFillSession_NoSettings(t *testing.T) {
	a := &app{cfg: &config.Config{}}

	p := hooks.RawPayload{}
	a.fillSession(p)

	if _, ok := p["session_id"]; ok {
		t.Error("empty settings must not add fields")
	}
}

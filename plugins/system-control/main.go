// Package main provides the system-control plugin for macOS.
// It drives output volume and media playback via AppleScript.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Source string          `json:"source"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type volumeParams struct {
	Level *float64 `json:"level"`
}

type seekParams struct {
	Seconds float64 `json:"seconds"`
}

// actionHandler handles one action given the request params.
type actionHandler func(params json.RawMessage) (any, error)

var actionHandlers = map[string]actionHandler{
	"set-volume":  setVolume,
	"get-volume":  getVolume,
	"volume-mute": volumeMute,
	"play":        media(`tell application "Music" to play`),
	"pause":       media(`tell application "Music" to pause`),
	"play-pause":  media(`tell application "Music" to playpause`),
	"seek":        seek,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	data, err := handler(req.Params)
	if err != nil {
		writeResponse(Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
		return
	}

	resp := Response{Success: true}
	if data != nil {
		resp.Data, _ = json.Marshal(data)
	}
	writeResponse(resp)
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript snippet and returns its trimmed output.
func runAppleScript(script string) (string, error) {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, string(output))
	}
	return string(output), nil
}

// setVolume sets the output volume to params.level, rounded to the nearest
// integer percent since that is all osascript accepts.
func setVolume(params json.RawMessage) (any, error) {
	var p volumeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if p.Level == nil {
		return nil, errors.New("level is required")
	}
	if *p.Level < 0 || *p.Level > 100 {
		return nil, fmt.Errorf("level %v out of range [0, 100]", *p.Level)
	}

	level := int(math.Round(*p.Level))
	if _, err := runAppleScript(fmt.Sprintf("set volume output volume %d", level)); err != nil {
		return nil, err
	}
	return map[string]int{"level": level}, nil
}

func getVolume(json.RawMessage) (any, error) {
	out, err := runAppleScript(`output volume of (get volume settings)`)
	if err != nil {
		return nil, err
	}
	var level int
	if _, err := fmt.Sscan(out, &level); err != nil {
		return nil, fmt.Errorf("unexpected osascript output %q", out)
	}
	return map[string]int{"level": level}, nil
}

func volumeMute(json.RawMessage) (any, error) {
	_, err := runAppleScript(`set volume output muted (not (output muted of (get volume settings)))`)
	return nil, err
}

func media(script string) actionHandler {
	return func(json.RawMessage) (any, error) {
		_, err := runAppleScript(script)
		return nil, err
	}
}

func seek(params json.RawMessage) (any, error) {
	var p seekParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if p.Seconds < 0 {
		return nil, fmt.Errorf("seek position %v must not be negative", p.Seconds)
	}
	_, err := runAppleScript(fmt.Sprintf(`tell application "Music" to set player position to %g`, p.Seconds))
	return nil, err
}

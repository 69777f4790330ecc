package rowan

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TestRunner executes a JSON-scripted sequence of frame actions against a
// store and engine. Used with the headless backend for deterministic
// engine tests and server-side smoke checks.
//
// Script shape:
//
//	{"steps": [
//		{"action": "set_text", "id": 3, "text": "Score: 10"},
//		{"action": "wait", "frames": 2},
//		{"action": "transition", "effect": "fade", "duration": 0.5},
//		{"action": "snapshot", "label": "after-update"}
//	]}
type TestRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int

	// Snapshots maps labels to captured composited frames.
	Snapshots map[string]*Buffer
}

type scriptStep struct {
	Action   string  `json:"action"`
	ID       NodeID  `json:"id"`
	Text     string  `json:"text"`
	Frames   int     `json:"frames"`
	Label    string  `json:"label"`
	Effect   string  `json:"effect"`
	Duration float64 `json:"duration"`
}

// LoadTestScript parses a JSON test script.
func LoadTestScript(data []byte) (*TestRunner, error) {
	var script struct {
		Steps []scriptStep `json:"steps"`
	}
	if err := json.Unmarshal(data, &script); err != nil {
		return nil, err
	}
	if len(script.Steps) == 0 {
		return nil, errors.New("rowan: test script has no steps")
	}
	return &TestRunner{
		steps:     script.Steps,
		Snapshots: make(map[string]*Buffer),
	}, nil
}

// Done reports whether all steps have executed.
func (r *TestRunner) Done() bool {
	return r.cursor >= len(r.steps)
}

// Step executes the next script action. Call once per frame, after
// RenderFrame, so snapshot steps see the frame the preceding mutations
// produced.
func (r *TestRunner) Step(store *Store, engine *Engine) error {
	if r.waitCount > 0 {
		r.waitCount--
		return nil
	}
	if r.Done() {
		return nil
	}
	step := r.steps[r.cursor]
	r.cursor++

	switch step.Action {
	case "wait":
		if step.Frames > 1 {
			r.waitCount = step.Frames - 1
		}
	case "set_text":
		n := store.Get(step.ID)
		if n == nil {
			return ErrNodeNotFound
		}
		props := n.Props
		props.Text = step.Text
		return store.SetProps(step.ID, props)
	case "mark_dirty":
		return store.MarkDirty(step.ID)
	case "transition":
		effect := EffectCrossFade
		switch step.Effect {
		case "fade", "":
		case "slide":
			effect = EffectSlide
		case "zoom":
			effect = EffectZoom
		default:
			return fmt.Errorf("rowan: unknown transition effect %q", step.Effect)
		}
		engine.StartTransition(effect, step.Duration, EaseOutQuad)
	case "snapshot":
		if engine.lastLive != nil {
			r.Snapshots[step.Label] = engine.lastLive.Clone()
		}
	default:
		return fmt.Errorf("rowan: unknown script action %q", step.Action)
	}
	return nil
}

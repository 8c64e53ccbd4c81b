// Package protocol defines the command/event surface of the palette engine.
package protocol

import (
	"errors"
	"fmt"
	"time"
)

// Version is reported by host/getProtocolVersion.
const Version = "1.0"

// Service names.
const (
	ServiceWindow     = "window"
	ServiceVisibility = "visibility"
	ServiceFrame      = "frame"
	ServiceTransform  = "transform"
	ServiceAnimation  = "animation"
	ServiceSnap       = "snap"
	ServiceInput      = "input"
	ServiceZOrder     = "zorder"
	ServiceFocus      = "focus"
	ServiceAppearance = "appearance"
	ServiceMessage    = "message"
	ServiceHost       = "host"
)

// Command addresses a service operation, optionally at one window.
type Command struct {
	ID       string `json:"id,omitempty"`
	Service  string `json:"service"`
	Command  string `json:"command"`
	WindowID string `json:"windowId,omitempty"`
	Params   Params `json:"params,omitempty"`
}

// String implements fmt.Stringer for log output.
func (c Command) String() string {
	if c.WindowID == "" {
		return fmt.Sprintf("%s/%s", c.Service, c.Command)
	}
	return fmt.Sprintf("%s/%s[%s]", c.Service, c.Command, c.WindowID)
}

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Result is the synchronous reply to a Command.
type Result struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// OK wraps a successful payload.
func OK(data any) Result {
	return Result{Status: StatusOK, Data: data}
}

// Fail converts err into an error result.
func Fail(err error) Result {
	var pe *Error
	if !errors.As(err, &pe) {
		pe = Internal("%v", err)
	}
	return Result{Status: StatusError, Error: pe}
}

// Err returns the result's error, or nil on success.
func (r Result) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// Event is a notification emitted by the engine.
type Event struct {
	Service   string         `json:"service"`
	Name      string         `json:"event"`
	WindowID  string         `json:"windowId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink receives events. Emit must not block.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

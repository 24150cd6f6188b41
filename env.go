package webtty

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DefaultPlatform is reported by Environment.Platform unless overridden.
const DefaultPlatform = "browser"

// defaultEnvVars are the variables a consumer framework reads at startup.
var defaultEnvVars = map[string]string{
	"TERM":      "xterm-256color",
	"COLORTERM": "truecolor",
	"LANG":      "en_US.UTF-8",
}

// Environment is the process-like table a consumer framework reads at
// startup: environment variables, a platform string, a deferred tick, and an
// exit function. It is immutable once NewEnvironment returns.
type Environment struct {
	vars      map[string]string
	platform  string
	scheduler Scheduler
}

// EnvOption configures an Environment during construction.
type EnvOption func(*Environment)

// WithEnvVar sets one variable.
func WithEnvVar(key, value string) EnvOption {
	return func(e *Environment) {
		e.vars[key] = value
	}
}

// WithEnvVars sets several variables, overwriting defaults.
func WithEnvVars(vars map[string]string) EnvOption {
	return func(e *Environment) {
		maps.Copy(e.vars, vars)
	}
}

// WithoutEnvVar removes a variable, including a default one.
func WithoutEnvVar(key string) EnvOption {
	return func(e *Environment) {
		delete(e.vars, key)
	}
}

// WithPlatform overrides the platform string.
func WithPlatform(platform string) EnvOption {
	return func(e *Environment) {
		e.platform = platform
	}
}

// WithScheduler sets the deferred-tick primitive used by NextTick.
func WithScheduler(s Scheduler) EnvOption {
	return func(e *Environment) {
		e.scheduler = s
	}
}

var sharedLoop = sync.OnceValue(NewLoop)

// NewEnvironment builds an environment from defaults and opts.
// Without WithScheduler, NextTick uses a process-wide Loop.
func NewEnvironment(opts ...EnvOption) *Environment {
	e := &Environment{
		vars:     maps.Clone(defaultEnvVars),
		platform: DefaultPlatform,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Getenv returns the value of key, or "" if unset.
func (e *Environment) Getenv(key string) string {
	return e.vars[key]
}

// LookupEnv returns the value of key and whether it is set.
func (e *Environment) LookupEnv(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Environ returns the variables as sorted KEY=value pairs.
func (e *Environment) Environ() []string {
	keys := slices.Sorted(maps.Keys(e.vars))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+e.vars[k])
	}
	return out
}

// Platform returns the platform string.
func (e *Environment) Platform() string {
	return e.platform
}

// Exit always panics with *ExitError; the page keeps running. Use CatchExit
// to turn the panic back into an error.
func (e *Environment) Exit(code int) {
	panic(&ExitError{Code: code})
}

// NextTick schedules fn on the next loop turn.
func (e *Environment) NextTick(fn func()) {
	s := e.scheduler
	if s == nil {
		s = sharedLoop()
	}
	s.ScheduleSoon(fn)
}

// ColorProfile derives the color capability from NO_COLOR, COLORTERM and TERM.
func (e *Environment) ColorProfile() termenv.Profile {
	if _, ok := e.vars["NO_COLOR"]; ok {
		return termenv.Ascii
	}
	switch strings.ToLower(e.vars["COLORTERM"]) {
	case "truecolor", "24bit":
		return termenv.TrueColor
	}
	term := e.vars["TERM"]
	switch {
	case term == "" || term == "dumb":
		return termenv.Ascii
	case strings.Contains(term, "256color"):
		return termenv.ANSI256
	default:
		return termenv.ANSI
	}
}

// Apply installs the color profile into lipgloss' default renderer so styles
// built with lipgloss.NewStyle render with color. Call it once at startup;
// it does not touch the real process environment.
func (e *Environment) Apply() {
	lipgloss.SetColorProfile(e.ColorProfile())
	lipgloss.SetHasDarkBackground(true)
}

// CatchExit runs fn and converts an Exit panic into an error.
// Other panics are re-raised.
func CatchExit(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if exit, ok := r.(*ExitError); ok {
			err = exit
			return
		}
		panic(r)
	}()
	fn()
	return nil
}

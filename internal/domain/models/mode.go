package models

// Mode is the process-wide connection mode. It is decided once during
// startup and read by every pipeline; connected and demo share identical
// state machines, differing only in which store backs them.
type Mode int

const (
	// Connected means the engine talks to the real remote store with a
	// verified session behind it.
	Connected Mode = iota
	// Demo means the engine runs entirely on generated sample data held
	// in memory. No remote calls are made in this mode.
	Demo
)

func (m Mode) String() string {
	switch m {
	case Connected:
		return "connected"
	case Demo:
		return "demo"
	default:
		return "unknown"
	}
}

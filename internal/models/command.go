package models

import (
	"errors"
	"fmt"
	"strings"
)

// Command is an actuator the device accepts on its control endpoint.
type Command string

const (
	CommandPumpIn     Command = "pump_in"
	CommandPumpOut    Command = "pump_out"
	CommandMasterPump Command = "master_pump" // drives both pumps
	CommandFeeder     Command = "feeder"
)

// ErrUnknownCommand is returned by ParseCommand for names outside the closed set.
var ErrUnknownCommand = errors.New("unknown actuator command")

// Commands lists every valid command.
var Commands = []Command{CommandPumpIn, CommandPumpOut, CommandMasterPump, CommandFeeder}

// ParseCommand normalizes s and maps it onto a Command.
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	return c, nil
}

// Valid reports whether c is one of the known commands.
func (c Command) Valid() bool {
	for _, k := range Commands {
		if c == k {
			return true
		}
	}
	return false
}

// Apply sets the outputs driven by c on st.
func (c Command) Apply(st *ActuatorState, on bool) {
	switch c {
	case CommandPumpIn:
		st.PumpIn = on
	case CommandPumpOut:
		st.PumpOut = on
	case CommandMasterPump:
		st.PumpIn = on
		st.PumpOut = on
	case CommandFeeder:
		st.Feeder = on
	}
}

// Overlaps reports whether c and o drive at least one common output.
func (c Command) Overlaps(o Command) bool {
	var a, b ActuatorState
	c.Apply(&a, true)
	o.Apply(&b, true)
	return (a.PumpIn && b.PumpIn) || (a.PumpOut && b.PumpOut) || (a.Feeder && b.Feeder)
}

// Without returns the command driving the outputs of c that o does not drive.
// ok is false when o covers all of c or the remainder is not addressable by a single command.
func (c Command) Without(o Command) (rest Command, ok bool) {
	var a, b ActuatorState
	c.Apply(&a, true)
	o.Apply(&b, true)
	in := a.PumpIn && !b.PumpIn
	out := a.PumpOut && !b.PumpOut
	feeder := a.Feeder && !b.Feeder
	switch {
	case in && out && !feeder:
		return CommandMasterPump, true
	case in && !out && !feeder:
		return CommandPumpIn, true
	case out && !in && !feeder:
		return CommandPumpOut, true
	case feeder && !in && !out:
		return CommandFeeder, true
	}
	return "", false
}

// ManualEventType is the history entry recorded for a user-issued command.
func (c Command) ManualEventType(on bool) EventType {
	switch c {
	case CommandPumpIn:
		return pick(on, EventManualPumpInOn, EventManualPumpInOff)
	case CommandPumpOut:
		return pick(on, EventManualPumpOutOn, EventManualPumpOutOff)
	case CommandMasterPump:
		return pick(on, EventManualMasterPumpOn, EventManualMasterPumpOff)
	case CommandFeeder:
		return pick(on, EventManualFeederOn, EventManualFeederOff)
	}
	return ""
}

func pick(on bool, a, b EventType) EventType {
	if on {
		return a
	}
	return b
}

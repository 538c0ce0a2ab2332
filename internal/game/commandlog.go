package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/catanforge/catan-server-go/internal/game/rules"
)

// Command is an accepted action as persisted. Payload is the action JSON
// including its resolved outcomes; Seq is the game version the command
// produced, starting at 1.
type Command struct {
	Seq         int              `json:"seq"`
	Type        rules.ActionType `json:"type"`
	PlayerIndex int              `json:"playerIndex"`
	Payload     json.RawMessage  `json:"payload"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Action decodes the command's payload.
func (c Command) Action() (Action, error) {
	return DecodeAction(c.Payload)
}

// CommandLog is the append-only, gap-free sequence of a game's commands.
// It is guarded by the owning session's lock.
type CommandLog struct {
	commands []Command
}

// NewCommandLog wraps already persisted commands, checking their order.
func NewCommandLog(commands []Command) (*CommandLog, error) {
	l := &CommandLog{commands: make([]Command, 0, len(commands))}
	for _, c := range commands {
		if err := l.Append(c); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Append adds the next command. Its Seq must follow the last one.
func (l *CommandLog) Append(c Command) error {
	if c.Seq != len(l.commands)+1 {
		return fmt.Errorf("command seq %d does not follow %d", c.Seq, len(l.commands))
	}
	l.commands = append(l.commands, c)
	return nil
}

// Len is the number of commands, which equals the game version.
func (l *CommandLog) Len() int {
	return len(l.commands)
}

// Since returns a copy of the commands after version.
func (l *CommandLog) Since(version int) []Command {
	if version < 0 {
		version = 0
	}
	if version >= len(l.commands) {
		return []Command{}
	}
	return append([]Command(nil), l.commands[version:]...)
}

// All returns a copy of every command.
func (l *CommandLog) All() []Command {
	return l.Since(0)
}

// At returns the command that produced version seq.
func (l *CommandLog) At(seq int) (Command, bool) {
	if seq < 1 || seq > len(l.commands) {
		return Command{}, false
	}
	return l.commands[seq-1], true
}

package terminal

import "github.com/gdamore/tcell/v2"

// Command is an operator action entered at the terminal.
type Command uint8

const (
	CmdNone Command = iota
	CmdQuit
	CmdToggle
	CmdScram
	CmdPowerUp
	CmdPowerDown
	CmdCoolantUp
	CmdCoolantDown
	CmdRodsOut
	CmdRodsIn
)

// KeyCommand maps a key press to a command.
func KeyCommand(key tcell.Key, r rune) Command {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return CmdQuit
	case tcell.KeyUp:
		return CmdPowerUp
	case tcell.KeyDown:
		return CmdPowerDown
	case tcell.KeyRight:
		return CmdCoolantUp
	case tcell.KeyLeft:
		return CmdCoolantDown
	case tcell.KeyRune:
		return runeCommand(r)
	}
	return CmdNone
}

func runeCommand(r rune) Command {
	switch r {
	case 'q':
		return CmdQuit
	case ' ':
		return CmdToggle
	case 's', 'S':
		return CmdScram
	case '+', '=':
		return CmdPowerUp
	case '-', '_':
		return CmdPowerDown
	case ']':
		return CmdCoolantUp
	case '[':
		return CmdCoolantDown
	case '.':
		return CmdRodsOut
	case ',':
		return CmdRodsIn
	}
	return CmdNone
}

// PollCommands forwards key commands from screen until the screen is finalized.
// The returned channel is closed when polling stops.
func PollCommands(screen tcell.Screen) <-chan Command {
	out := make(chan Command, 16)
	go func() {
		defer close(out)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			if key, ok := ev.(*tcell.EventKey); ok {
				if cmd := KeyCommand(key.Key(), key.Rune()); cmd != CmdNone {
					select {
					case out <- cmd:
					default:
					}
				}
			}
		}
	}()
	return out
}

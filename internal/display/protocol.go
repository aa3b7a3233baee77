package display

import (
	"fmt"
	"strings"

	"github.com/genricoloni/sbcast/internal/domain"
)

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", " ", "\n", " ")

// Escape quotes text for embedding in a text command. Line breaks become
// spaces so a payload never spans more than one wire line.
// Layout must happen before escaping since escapes are not rendered.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Encode returns the wire form of a command, without the line terminator
func Encode(cmd domain.DrawCommand) string {
	a := cmd.Args
	switch cmd.Kind {
	case domain.CmdSketch:
		return "sketch"
	case domain.CmdEncoding:
		return "encoding " + cmd.Text
	case domain.CmdClear:
		return "clear"
	case domain.CmdColor:
		return fmt.Sprintf("color %d", a[0])
	case domain.CmdRect:
		return fmt.Sprintf("rect %d %d %d %d", a[0], a[1], a[2], a[3])
	case domain.CmdLine:
		return fmt.Sprintf("line %d %d %d %d", a[0], a[1], a[2], a[3])
	case domain.CmdPoint:
		return fmt.Sprintf("point %d %d", a[0], a[1])
	case domain.CmdText:
		return fmt.Sprintf(`text %d %d "%s"`, a[0], a[1], Escape(cmd.Text))
	default:
		return ""
	}
}

// initSequence is sent once per connection before anything else
var initSequence = []domain.DrawCommand{
	domain.Sketch(),
	domain.EncodingUTF8(),
	domain.Clear(),
}

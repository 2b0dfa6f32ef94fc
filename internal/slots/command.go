package slots

import "strings"

// Command is a cross-cutting instruction handled before any dialog step.
type Command int

const (
	CommandNone Command = iota
	CommandReset
	CommandExportCSV
	CommandExportJSON
)

var commandPhrases = map[string]Command{
	"reset":       CommandReset,
	"start over":  CommandReset,
	"export csv":  CommandExportCSV,
	"export json": CommandExportJSON,
}

// ParseCommand recognizes reset and export commands. The whole utterance
// must be the command; "reset Bihar" is ordinary input.
func ParseCommand(text string) Command {
	lower := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if lower == "" {
		return CommandNone
	}
	return commandPhrases[lower]
}

func (c Command) String() string {
	switch c {
	case CommandReset:
		return "reset"
	case CommandExportCSV:
		return "export_csv"
	case CommandExportJSON:
		return "export_json"
	default:
		return "none"
	}
}

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/salahplan/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDone   Type = "done"
	TypeRepeat Type = "repeat"
	TypeDelete Type = "delete"
	TypeTheme  Type = "theme"
	TypeClear  Type = "clear"
	TypeAI     Type = "ai"
	TypeHealth Type = "health"
	TypeQuran  Type = "quran"
	TypeCity   Type = "city"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// AddArgs comes from "add <title> @ <time> [#category] [!reminder]".
type AddArgs struct {
	Title    string
	Time     string
	Category model.Category
	Reminder int
}

// IndexArgs points at a row of today's list, counting from 1.
type IndexArgs struct {
	Index int
}

type ThemeArgs struct {
	Theme model.Theme
}

type AIArgs struct {
	Prompt string
}

// HealthArgs comes from "health <habit> on|off [HH:MM-HH:MM]".
type HealthArgs struct {
	Habit   model.Habit
	Enabled bool
	Start   string
	End     string
}

// QuranArgs comes from "quran on|off [minutes]".
type QuranArgs struct {
	Enabled bool
	Minutes int
}

// CityArgs comes from "city <city>, <country>".
type CityArgs struct {
	City    string
	Country string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Index  *IndexArgs
	Theme  *ThemeArgs
	AI     *AIArgs
	Health *HealthArgs
	Quran  *QuranArgs
	City   *CityArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(raw, parts[0]))

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, rest)
	case TypeDone, TypeRepeat, TypeDelete:
		return parseIndex(input, Type(head), args)
	case TypeTheme:
		return parseTheme(input, args)
	case TypeClear:
		return Command{Type: TypeClear, Raw: input}, nil
	case TypeAI:
		if rest == "" {
			return Command{}, invalid("ai requires a prompt")
		}
		return Command{Type: TypeAI, Raw: input, AI: &AIArgs{Prompt: rest}}, nil
	case TypeHealth:
		return parseHealth(input, args)
	case TypeQuran:
		return parseQuran(input, args)
	case TypeCity:
		return parseCity(input, rest)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw, rest string) (Command, error) {
	title, when, ok := strings.Cut(rest, "@")
	title = strings.TrimSpace(title)
	if title == "" {
		return Command{}, invalid("add requires a title")
	}
	if !ok || strings.TrimSpace(when) == "" {
		return Command{}, invalid("add requires a time after @")
	}

	args := AddArgs{Title: title, Category: model.CategoryWork}
	var timeParts []string
	for _, field := range strings.Fields(when) {
		switch {
		case strings.HasPrefix(field, "#"):
			c, ok := model.ParseCategory(strings.TrimPrefix(field, "#"))
			if !ok {
				return Command{}, invalid("unknown category %q", field)
			}
			args.Category = c
		case strings.HasPrefix(field, "!"):
			n, err := strconv.Atoi(strings.TrimPrefix(field, "!"))
			if err != nil || n < 0 {
				return Command{}, invalid("reminder must be minutes, got %q", field)
			}
			args.Reminder = n
		default:
			timeParts = append(timeParts, field)
		}
	}
	args.Time = strings.Join(timeParts, " ")
	if args.Time == "" {
		return Command{}, invalid("add requires a time after @")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &args}, nil
}

func parseIndex(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("%s requires a task number", typ)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return Command{}, invalid("%s requires a task number, got %q", typ, args[0])
	}
	return Command{Type: typ, Raw: raw, Index: &IndexArgs{Index: n}}, nil
}

func parseTheme(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("theme requires light, dark or high-contrast")
	}
	theme := model.Theme(strings.ToLower(args[0]))
	if !theme.IsValid() {
		return Command{}, invalid("unknown theme %q", args[0])
	}
	return Command{Type: TypeTheme, Raw: raw, Theme: &ThemeArgs{Theme: theme}}, nil
}

func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "enable", "yes":
		return true, true
	case "off", "disable", "no":
		return false, true
	default:
		return false, false
	}
}

func parseHealth(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, invalid("health requires a habit and on|off")
	}
	habit := model.Habit(strings.ToLower(args[0]))
	known := false
	for _, h := range model.Habits {
		if h == habit {
			known = true
		}
	}
	if !known {
		return Command{}, invalid("unknown habit %q", args[0])
	}
	enabled, ok := parseSwitch(args[1])
	if !ok {
		return Command{}, invalid("health requires on or off, got %q", args[1])
	}
	out := HealthArgs{Habit: habit, Enabled: enabled}
	if len(args) > 2 {
		start, end, ok := strings.Cut(args[2], "-")
		if !ok || start == "" || end == "" {
			return Command{}, invalid("health window must be HH:MM-HH:MM, got %q", args[2])
		}
		out.Start, out.End = start, end
	}
	return Command{Type: TypeHealth, Raw: raw, Health: &out}, nil
}

func parseQuran(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("quran requires on or off")
	}
	enabled, ok := parseSwitch(args[0])
	if !ok {
		return Command{}, invalid("quran requires on or off, got %q", args[0])
	}
	out := QuranArgs{Enabled: enabled}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return Command{}, invalid("quran minutes must be positive, got %q", args[1])
		}
		out.Minutes = n
	}
	return Command{Type: TypeQuran, Raw: raw, Quran: &out}, nil
}

func parseCity(raw, rest string) (Command, error) {
	city, country, ok := strings.Cut(rest, ",")
	city, country = strings.TrimSpace(city), strings.TrimSpace(country)
	if !ok || city == "" || country == "" {
		return Command{}, invalid("city requires \"<city>, <country>\"")
	}
	return Command{Type: TypeCity, Raw: raw, City: &CityArgs{City: city, Country: country}}, nil
}

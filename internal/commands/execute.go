package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add    func(AddArgs) (Result, error)
	Done   func(IndexArgs) (Result, error)
	Repeat func(IndexArgs) (Result, error)
	Delete func(IndexArgs) (Result, error)
	Theme  func(ThemeArgs) (Result, error)
	Clear  func() (Result, error)
	AI     func(AIArgs) (Result, error)
	Health func(HealthArgs) (Result, error)
	Quran  func(QuranArgs) (Result, error)
	City   func(CityArgs) (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing("add")
		}
		return handlers.Add(*cmd.Add)
	case TypeDone, TypeRepeat, TypeDelete:
		h := map[Type]func(IndexArgs) (Result, error){
			TypeDone:   handlers.Done,
			TypeRepeat: handlers.Repeat,
			TypeDelete: handlers.Delete,
		}[cmd.Type]
		if h == nil {
			return Result{}, missing(string(cmd.Type))
		}
		return h(*cmd.Index)
	case TypeTheme:
		if handlers.Theme == nil {
			return Result{}, missing("theme")
		}
		return handlers.Theme(*cmd.Theme)
	case TypeClear:
		if handlers.Clear == nil {
			return Result{}, missing("clear")
		}
		return handlers.Clear()
	case TypeAI:
		if handlers.AI == nil {
			return Result{}, missing("ai")
		}
		return handlers.AI(*cmd.AI)
	case TypeHealth:
		if handlers.Health == nil {
			return Result{}, missing("health")
		}
		return handlers.Health(*cmd.Health)
	case TypeQuran:
		if handlers.Quran == nil {
			return Result{}, missing("quran")
		}
		return handlers.Quran(*cmd.Quran)
	case TypeCity:
		if handlers.City == nil {
			return Result{}, missing("city")
		}
		return handlers.City(*cmd.City)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

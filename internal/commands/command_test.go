package commands

import (
	"errors"
	"testing"

	"github.com/sandeepkv93/salahplan/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent @ 10:00 AM", TypeAdd},
		{"done 2", TypeDone},
		{"/repeat 1", TypeRepeat},
		{"delete 3", TypeDelete},
		{"theme dark", TypeTheme},
		{"/clear", TypeClear},
		{"ai gym tomorrow at 7pm", TypeAI},
		{"health gym on 18:00-19:00", TypeHealth},
		{"quran on 20", TypeQuran},
		{"city Lahore, Pakistan", TypeCity},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddFlags(t *testing.T) {
	cmd, err := Parse("/add Pay rent @ 10:00 AM – 11:00 AM #finance !15")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	a := cmd.Add
	if a.Title != "Pay rent" || a.Time != "10:00 AM – 11:00 AM" {
		t.Fatalf("unexpected add args: %+v", a)
	}
	if a.Category != model.CategoryFinance || a.Reminder != 15 {
		t.Fatalf("unexpected add flags: %+v", a)
	}
}

func TestParseInvalidArguments(t *testing.T) {
	for _, in := range []string{
		"add no time",
		"add @ 10:00 AM",
		"add x @ 10:00 AM #hobby",
		"done zero",
		"done 0",
		"theme neon",
		"health yoga on",
		"health gym maybe",
		"health gym on 18:00",
		"quran later",
		"city Lahore",
		"ai",
	} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument error, got %v", in, err)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(" / ")
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
		t.Fatalf("expected empty input error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/done 2")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Done: func(a IndexArgs) (Result, error) {
			called = true
			if a.Index != 2 {
				t.Fatalf("unexpected index: %d", a.Index)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("repeat 1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}

// Package notify delivers notifications to the operating system. Delivery is
// best effort and never blocks the in-app notification log.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/salahplan/internal/model"
)

// DesktopNotifier shows a notification outside the app.
type DesktopNotifier interface {
	Send(ctx context.Context, n model.Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(context.Context, model.Notification) error { return nil }

// ExecDesktopNotifier shells out to notify-send on Linux and osascript on
// macOS.
type ExecDesktopNotifier struct {
	Timeout time.Duration
}

func (e ExecDesktopNotifier) Send(ctx context.Context, n model.Notification) error {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch runtime.GOOS {
	case "linux":
		return exec.CommandContext(ctx, "notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.CommandContext(ctx, "osascript", "-e", script).Run()
	default:
		return nil
	}
}

var appleScriptEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeAppleScript(s string) string {
	return appleScriptEscaper.Replace(s)
}

// Sink gates a desktop notifier on the user's permission. Failures are
// logged and swallowed.
type Sink struct {
	notifier DesktopNotifier
	allowed  bool
	logger   *log.Logger
}

func NewSink(notifier DesktopNotifier, allowed bool, logger *log.Logger) *Sink {
	if notifier == nil {
		notifier = NoopDesktopNotifier{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sink{notifier: notifier, allowed: allowed, logger: logger}
}

func (s *Sink) Allowed() bool {
	return s != nil && s.allowed
}

// Deliver sends n when permitted. It reports whether the notifier accepted it.
func (s *Sink) Deliver(ctx context.Context, n model.Notification) bool {
	if !s.Allowed() {
		return false
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Warn("desktop notification failed", "title", n.Title, "err", err)
		return false
	}
	return true
}

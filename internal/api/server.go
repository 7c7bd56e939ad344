// Package api serves the planner over HTTP for browser front-ends.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rs/cors"

	"github.com/sandeepkv93/salahplan/internal/aiparse"
	"github.com/sandeepkv93/salahplan/internal/analytics"
	"github.com/sandeepkv93/salahplan/internal/conflict"
	"github.com/sandeepkv93/salahplan/internal/model"
	"github.com/sandeepkv93/salahplan/internal/planner"
	"github.com/sandeepkv93/salahplan/internal/quran"
	"github.com/sandeepkv93/salahplan/internal/timerange"
	"github.com/sandeepkv93/salahplan/internal/transfer"
)

// Planner is the part of the runtime the server drives.
type Planner interface {
	Do(ctx context.Context, fn planner.Transition) (planner.State, error)
	Snapshot(ctx context.Context) (planner.State, error)
	Now() time.Time
}

type Server struct {
	planner Planner
	parser  aiparse.Parser
	logger  *log.Logger
	origins []string
}

// NewServer builds the server. parser may be nil, which disables /api/ai.
func NewServer(p Planner, parser aiparse.Parser, origins []string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{planner: p, parser: parser, logger: logger, origins: origins}
}

// Handler is the routed mux wrapped in CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /api/tasks", s.listTasks)
	mux.HandleFunc("POST /api/tasks", s.saveTask)
	mux.HandleFunc("DELETE /api/tasks/{date}/{id}", s.deleteTask)
	mux.HandleFunc("POST /api/tasks/{date}/{id}/toggle", s.toggleTask)
	mux.HandleFunc("POST /api/tasks/{date}/{id}/repeat", s.repeatTask)
	mux.HandleFunc("POST /api/ai/tasks", s.aiTask)

	mux.HandleFunc("GET /api/prayer-times", s.prayerTimes)
	mux.HandleFunc("GET /api/settings", s.settings)
	mux.HandleFunc("PUT /api/settings/prayer", s.putPrayerSettings)
	mux.HandleFunc("PUT /api/settings/health", s.putHealthSettings)
	mux.HandleFunc("PUT /api/settings/theme", s.putTheme)

	mux.HandleFunc("GET /api/notifications", s.listNotifications)
	mux.HandleFunc("DELETE /api/notifications", s.clearNotifications)
	mux.HandleFunc("POST /api/notifications/read", s.readNotifications)

	mux.HandleFunc("GET /api/analytics", s.summary)
	mux.HandleFunc("GET /api/export", s.export)
	mux.HandleFunc("POST /api/import", s.importBackup)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(mux)
}

// taskRequest is the JSON body of POST /api/tasks. An empty id creates a task.
type taskRequest struct {
	ID         string            `json:"id"`
	Date       string            `json:"date"`
	Title      string            `json:"title"`
	Category   string            `json:"category"`
	Time       string            `json:"time"`
	Reminder   int               `json:"reminder"`
	Recurrence *model.Recurrence `json:"recurrence"`
}

func (t taskRequest) input() (planner.TaskInput, error) {
	in := planner.TaskInput{
		ID:         t.ID,
		Date:       t.Date,
		Title:      t.Title,
		Time:       timerange.ParseWindow(t.Time),
		Reminder:   t.Reminder,
		Recurrence: t.Recurrence,
	}
	if strings.TrimSpace(t.Category) != "" {
		c, ok := model.ParseCategory(t.Category)
		if !ok {
			return in, fmt.Errorf("%w: %q", model.ErrInvalidCategory, t.Category)
		}
		in.Category = c
	}
	return in, nil
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	st, err := s.planner.Snapshot(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = model.DateKey(s.planner.Now())
	}
	out := make([]model.Task, 0)
	if date == "all" {
		out = append(out, st.Tasks...)
	} else {
		for _, t := range st.Tasks {
			if t.Date == date {
				out = append(out, t)
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) saveTask(w http.ResponseWriter, r *http.Request) {
	var body taskRequest
	if !decode(w, r, &body) {
		return
	}
	in, err := body.input()
	if err != nil {
		s.fail(w, err)
		return
	}
	var saved model.Task
	_, err = s.planner.Do(r.Context(), func(st planner.State, now time.Time) (planner.State, error) {
		next, task, err := st.SaveTask(in, now)
		saved = task
		return next, err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	status := http.StatusOK
	if body.ID == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	date, id := r.PathValue("date"), r.PathValue("id")
	_, err := s.planner.Do(r.Context(), func(st planner.State, _ time.Time) (planner.State, error) {
		return st.DeleteTask(id, date)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleTask(w http.ResponseWriter, r *http.Request) {
	date, id := r.PathValue("date"), r.PathValue("id")
	st, err := s.planner.Do(r.Context(), func(st planner.State, now time.Time) (planner.State, error) {
		return st.ToggleTask(id, date, now)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	task, _ := st.Find(id, date)
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) repeatTask(w http.ResponseWriter, r *http.Request) {
	date, id := r.PathValue("date"), r.PathValue("id")
	var copied model.Task
	_, err := s.planner.Do(r.Context(), func(st planner.State, now time.Time) (planner.State, error) {
		next, task, err := st.RepeatTomorrow(id, date, now)
		copied = task
		return next, err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, copied)
}

func (s *Server) aiTask(w http.ResponseWriter, r *http.Request) {
	if s.parser == nil {
		writeError(w, http.StatusServiceUnavailable, aiparse.ErrNoAPIKey.Error())
		return
	}
	var body struct {
		Prompt string `json:"prompt"`
	}
	if !decode(w, r, &body) {
		return
	}
	draft, err := aiparse.ParseTask(r.Context(), s.parser, body.Prompt)
	if err != nil {
		s.fail(w, err)
		return
	}
	var saved model.Task
	_, err = s.planner.Do(r.Context(), func(st planner.State, now time.Time) (planner.State, error) {
		next, task, err := st.SaveTask(planner.FromDraft(draft), now)
		saved = task
		return next, err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

type prayerTimesResponse struct {
	Date  string             `json:"date"`
	Times *model.PrayerTimes `json:"times"`
}

func (s *Server) prayerTimes(w http.ResponseWriter, r *http.Request) {
	st, err := s.planner.Snapshot(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prayerTimesResponse{Date: model.DateKey(s.planner.Now()), Times: st.PrayerTimes})
}

type settingsResponse struct {
	PrayerSettings model.PrayerSettings `json:"prayerSettings"`
	HealthSettings model.HealthSettings `json:"healthSettings"`
	Theme          model.Theme          `json:"theme"`
	QuranProgress  float64              `json:"quranProgress"`
}

func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	st, err := s.planner.Snapshot(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		PrayerSettings: st.PrayerSettings,
		HealthSettings: st.HealthSettings,
		Theme:          st.Theme,
		QuranProgress:  quran.Ratio(st.HealthSettings.QuranRecitation.CompletionHistory),
	})
}

func (s *Server) putPrayerSettings(w http.ResponseWriter, r *http.Request) {
	var body model.PrayerSettings
	if !decode(w, r, &body) {
		return
	}
	st, err := s.planner.Do(r.Context(), func(st planner.State, _ time.Time) (planner.State, error) {
		return st.SetPrayerSettings(body)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st.PrayerSettings)
}

func (s *Server) putHealthSettings(w http.ResponseWriter, r *http.Request) {
	var body model.HealthSettings
	if !decode(w, r, &body) {
		return
	}
	st, err := s.planner.Do(r.Context(), func(st planner.State, now time.Time) (planner.State, error) {
		return st.SaveHealthSettings(body, now), nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st.HealthSettings)
}

func (s *Server) putTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme model.Theme `json:"theme"`
	}
	if !decode(w, r, &body) {
		return
	}
	_, err := s.planner.Do(r.Context(), func(st planner.State, _ time.Time) (planner.State, error) {
		return st.SetTheme(body.Theme)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	st, err := s.planner.Snapshot(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Notifications)
}

func (s *Server) clearNotifications(w http.ResponseWriter, r *http.Request) {
	_, err := s.planner.Do(r.Context(), func(st planner.State, _ time.Time) (planner.State, error) {
		return st.ClearNotifications(), nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) readNotifications(w http.ResponseWriter, r *http.Request) {
	_, err := s.planner.Do(r.Context(), func(st planner.State, _ time.Time) (planner.State, error) {
		return st.MarkNotificationsRead(), nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	st, err := s.planner.Snapshot(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Summarize(st.Tasks, s.planner.Now()))
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	st, err := s.planner.Snapshot(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="salahplan-backup.json"`)
	if err := transfer.Export(w, st.Saved()); err != nil {
		s.logger.Error("export", "err", err)
	}
}

func (s *Server) importBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := transfer.Import(r.Body)
	if err != nil {
		s.fail(w, err)
		return
	}
	st, err := s.planner.Do(r.Context(), func(st planner.State, now time.Time) (planner.State, error) {
		return st.Import(backup, now), nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"tasks": len(st.Tasks)})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	var ce *conflict.Error
	switch {
	case errors.As(err, &ce):
		writeError(w, http.StatusConflict, ce.Error())
	case errors.Is(err, planner.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, planner.ErrMissingFields),
		errors.Is(err, conflict.ErrInvalidTime),
		errors.Is(err, transfer.ErrInvalidBackup),
		errors.Is(err, model.ErrInvalidCategory),
		errors.Is(err, model.ErrInvalidTheme),
		errors.Is(err, model.ErrInvalidJuristic),
		errors.Is(err, model.ErrInvalidLatitude),
		errors.Is(err, aiparse.ErrEmptyPrompt),
		errors.Is(err, aiparse.ErrMissingFields),
		errors.Is(err, aiparse.ErrInvalidTime):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, planner.ErrNotRunning):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

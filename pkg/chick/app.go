package chick

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chobyoungjae/chick/pkg/chick/models"
	"github.com/chobyoungjae/chick/pkg/chick/trigger"
)

// App connects sheet events to workbook operations:
//
//   - an edit of the checkbox column highlights or clears the row,
//   - an edit of the memo column checks the row,
//   - a workbook change or a timer tick checks the whole grid.
type App struct {
	wb     *Workbook
	logger *zap.Logger
}

// NewApp creates an App for wb. A nil logger discards output.
func NewApp(wb *Workbook, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{wb: wb, logger: logger}
}

// Register installs the App's handlers on bus.
func (a *App) Register(bus *trigger.Bus) {
	bus.Register(trigger.Edit, a.onEdit)
	bus.Register(trigger.Change, a.onChange)
	bus.Register(trigger.Timer, a.onTimer)
}

// Sources returns the timer source and, when watchFile is set, a watcher
// on the workbook file.
func (a *App) Sources(interval, debounce time.Duration, watchFile bool) []trigger.Source {
	sources := []trigger.Source{&trigger.Ticker{Interval: interval, Logger: a.logger}}
	if watchFile {
		sources = append(sources, &trigger.FileWatcher{Path: a.wb.Path(), Debounce: debounce, Logger: a.logger})
	}
	return sources
}

func (a *App) onEdit(ctx context.Context, ev trigger.Event) error {
	layout := a.wb.Layout()
	if !layout.InData(ev.Row) {
		return nil
	}

	switch ev.Col {
	case layout.CheckColumn:
		if Checked(ev.Value) {
			_, err := a.wb.HighlightRow(ctx, ev.Row)
			return err
		}
		_, err := a.wb.ClearRow(ctx, ev.Row)
		return err
	case layout.MemoColumn:
		_, err := a.wb.CheckRow(ctx, ev.Row)
		return err
	}
	return nil
}

func (a *App) onChange(ctx context.Context, ev trigger.Event) error {
	reloaded, err := a.wb.Reload(ctx)
	if err != nil {
		return err
	}
	if !reloaded {
		a.logger.Debug("Ignoring own save", zap.String("path", ev.Path))
		return nil
	}
	_, err = a.wb.CheckAll(ctx)
	return err
}

func (a *App) onTimer(ctx context.Context, ev trigger.Event) error {
	if _, err := a.wb.Reload(ctx); err != nil {
		return err
	}
	_, err := a.wb.CheckAll(ctx)
	return err
}

// Checked reports whether a checkbox cell value means "checked".
func Checked(v models.Value) bool {
	if v.Kind == models.KindString {
		switch strings.ToUpper(strings.TrimSpace(v.Str)) {
		case "FALSE", "0", "":
			return false
		}
		return true
	}
	return v.Truthy()
}

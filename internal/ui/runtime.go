package ui

import (
	"context"
	"log/slog"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/arbhalerao/sse-demo/internal/config"
	"github.com/arbhalerao/sse-demo/internal/engine"
	"github.com/arbhalerao/sse-demo/internal/stream"
	"github.com/arbhalerao/sse-demo/internal/trigger"
)

// Run mounts the viewer: it opens the stream, runs the program until the
// user quits, and returns once the connection has been released.
func Run(cfg config.Config, noColor bool, logger *slog.Logger) error {
	source := stream.New(stream.Options{
		URL:           cfg.EventsURL,
		RetryInterval: cfg.RetryInterval,
		MaxFrameBytes: cfg.MaxFrameBytes,
		Logger:        logger.With("component", "stream"),
	})
	action := trigger.New(cfg.TriggerURL, &http.Client{Timeout: cfg.TriggerTimeout}, logger.With("component", "trigger"))
	eng := engine.New(engine.Options{
		Source:          source,
		Trigger:         action,
		TriggerTimeout:  cfg.TriggerTimeout,
		LogCapacityHint: cfg.LogCapacityHint,
		Logger:          logger.With("component", "engine"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if !noColor {
		prevBg := termenv.BackgroundColor()
		termenv.SetBackgroundColor(termenv.RGBColor(baseBGHex))
		if prevBg != nil {
			defer termenv.SetBackgroundColor(prevBg)
		}
	}

	go func() {
		_ = eng.Run(ctx)
	}()

	p := tea.NewProgram(New(noColor, eng, cancel, cfg), tea.WithAltScreen())
	_, err := p.Run()
	cancel()
	<-eng.Done()
	return err
}

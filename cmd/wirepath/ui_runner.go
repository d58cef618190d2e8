package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"wirepath/internal/pipeline"
	"wirepath/internal/ui"
)

// progressBuffer is the event backlog the resolver may build before it waits on the view.
var progressBuffer = 256

type resolveOutcome struct {
	result pipeline.Result
	err    error
}

func runResolveWithUI(ctx context.Context, out io.Writer, title string, req *pipeline.Request) (pipeline.Result, error) {
	return resolveWithView(ctx, req, func(events <-chan pipeline.Event) error {
		program := tea.NewProgram(ui.NewProgressModel(title, events), tea.WithOutput(out))
		_, err := program.Run()
		return err
	})
}

// resolveWithView runs the pipeline while view consumes its events. When view returns
// before the pipeline is done (quit key, no terminal) the pipeline is cancelled and the
// remaining events are drained so it can finish.
func resolveWithView(ctx context.Context, req *pipeline.Request, view func(<-chan pipeline.Event) error) (pipeline.Result, error) {
	if req == nil {
		return pipeline.Result{}, fmt.Errorf("missing resolve request")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan pipeline.Event, progressBuffer)
	outcomeCh := make(chan resolveOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = pipeline.ChannelSink{Ch: events}
		res, err := pipeline.Resolve(ctx, &reqCopy)
		outcomeCh <- resolveOutcome{result: res, err: err}
		close(events)
	}()

	uiErr := view(events)
	cancel()
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

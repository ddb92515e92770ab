package ai

import (
	"context"
	"errors"

	"github.com/Nomadcxx/vidmeta/internal/logging"
)

// Insight adapts a Client to per-field answers. Every failure is logged
// and reported as "not provided".
type Insight struct {
	client *Client
	logger *logging.Logger
}

// NewInsight wraps client
func NewInsight(client *Client, logger *logging.Logger) *Insight {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Insight{client: client, logger: logger}
}

// SuggestTitle asks for a display title.
func (i *Insight) SuggestTitle(ctx context.Context, text string) (string, bool) {
	answer, ok := i.ask(ctx, TaskTitle, text)
	return answer, ok
}

// SuggestPublisher asks for the most prominent publisher name.
func (i *Insight) SuggestPublisher(ctx context.Context, text string) (string, bool) {
	answer, ok := i.ask(ctx, TaskPublisher, text)
	return answer, ok
}

// ExtractActorNames asks for performer names.
func (i *Insight) ExtractActorNames(ctx context.Context, text string) ([]string, bool) {
	answer, ok := i.ask(ctx, TaskActors, text)
	if !ok {
		return nil, false
	}
	names := SplitActorNames(answer)
	return names, len(names) > 0
}

func (i *Insight) ask(ctx context.Context, task Task, text string) (string, bool) {
	answer, err := i.client.Analyze(ctx, task, text)
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			i.logger.Warn("ai", "Content analysis unavailable",
				logging.F("task", task.Name),
				logging.F("error", err.Error()))
		}
		return "", false
	}
	if answer == "" {
		return "", false
	}
	return answer, true
}

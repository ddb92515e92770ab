package watcher

import (
	"context"
	"errors"

	"github.com/Nomadcxx/vidmeta/internal/logging"
	"github.com/Nomadcxx/vidmeta/internal/processor"
)

// FileProcessor handles one file.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (*processor.Result, error)
}

// ProcessHandler runs the processor for created or modified video files.
type ProcessHandler struct {
	proc    FileProcessor
	isVideo func(string) bool
	logger  *logging.Logger
	// OnResult, if set, receives every successful result.
	OnResult func(*processor.Result)
}

// NewProcessHandler creates a handler. isVideo decides which paths count.
func NewProcessHandler(proc FileProcessor, isVideo func(string) bool, logger *logging.Logger) *ProcessHandler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ProcessHandler{proc: proc, isVideo: isVideo, logger: logger}
}

func (h *ProcessHandler) IsVideoFile(path string) bool {
	return h.isVideo(path)
}

func (h *ProcessHandler) HandleFileEvent(ctx context.Context, event FileEvent) error {
	switch event.Type {
	case EventCreate, EventWrite:
	default:
		return nil
	}

	res, err := h.proc.ProcessFile(ctx, event.Path)
	if errors.Is(err, processor.ErrNotFound) {
		h.logger.Debug("watcher", "File vanished before processing", logging.F("path", event.Path))
		return nil
	}
	if err != nil {
		return err
	}
	if h.OnResult != nil {
		h.OnResult(res)
	}
	return nil
}

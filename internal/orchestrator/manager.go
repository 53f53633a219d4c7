package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/GriffinCanCode/focuswatch/internal/config"
	apperrors "github.com/GriffinCanCode/focuswatch/internal/errors"
	"github.com/GriffinCanCode/focuswatch/internal/inference"
	"github.com/GriffinCanCode/focuswatch/internal/notify"
	"github.com/GriffinCanCode/focuswatch/internal/orchestrator/history"
	"github.com/GriffinCanCode/focuswatch/internal/orchestrator/retention"
	"github.com/GriffinCanCode/focuswatch/internal/orchestrator/sidecar"
	"github.com/GriffinCanCode/focuswatch/internal/orchestrator/verdict"
	"github.com/GriffinCanCode/focuswatch/internal/screen"
	"github.com/GriffinCanCode/focuswatch/internal/syncx"
	"github.com/GriffinCanCode/focuswatch/internal/trace"
)

// Status is a point-in-time view of the loop for readers outside it.
type Status struct {
	Running   bool           `json:"running"`
	StartedAt time.Time      `json:"started_at"`
	Cycles    int            `json:"cycles"`
	Capacity  int            `json:"buffer_size"`
	Buffer    []string       `json:"buffer"`
	Last      *history.Entry `json:"last,omitempty"`
}

// Manager owns the retention buffer and runs capture cycles one at a time.
type Manager struct {
	cfg       *config.Config
	capturer  screen.Capturer
	inference inference.Client
	notifier  notify.Notifier
	history   *history.Store
	buf       *retention.Buffer
	status    *syncx.Guard[Status]

	out         io.Writer
	warmUp      time.Duration
	now         func() time.Time
	fingerprint func(string) (*goimagehash.ImageHash, error)

	// loop-goroutine state
	cycle    int
	lastHash *goimagehash.ImageHash
}

// New creates a new manager
func New(cfg *config.Config, capturer screen.Capturer, client inference.Client, notifier notify.Notifier) *Manager {
	return &Manager{
		cfg:         cfg,
		capturer:    capturer,
		inference:   client,
		notifier:    notifier,
		history:     history.NewStore(HistoryMaxEntries, HistoryEventBuffer),
		buf:         retention.NewBuffer(cfg.BufferSize),
		status:      syncx.NewGuard(Status{Capacity: cfg.BufferSize, Buffer: []string{}}),
		out:         os.Stdout,
		warmUp:      WarmUpDelay,
		now:         time.Now,
		fingerprint: screen.Fingerprint,
	}
}

// SetOutput redirects the console lines (banner, model output, verdict).
func (m *Manager) SetOutput(w io.Writer) {
	m.out = w
}

// Run waits out the warm-up delay, then runs cycles every interval until ctx
// is cancelled. A started cycle always finishes; cancellation is only observed
// while sleeping. Returns nil on cancellation and the error of a failed cycle otherwise.
func (m *Manager) Run(ctx context.Context) error {
	fmt.Fprintf(m.out, "Taking screenshots every %d seconds. Press Ctrl+C to stop.\n", int(m.cfg.Interval/time.Second))
	slog.Info("capture loop starting",
		"interval", m.cfg.Interval,
		"model", m.cfg.ModelName,
		"backend", m.cfg.Backend,
		"buffer_size", m.cfg.BufferSize,
		"capture_dir", m.cfg.CaptureDir,
		"warm_up", m.warmUp)

	m.status.Update(func(s *Status) {
		s.Running = true
		s.StartedAt = m.now()
	})
	defer m.status.Update(func(s *Status) { s.Running = false })

	if !sleep(ctx, m.warmUp) {
		return m.stopped()
	}

	for {
		if err := m.RunCycle(context.WithoutCancel(ctx)); err != nil {
			if apperrors.IsFatal(err) {
				return err
			}
			fmt.Fprintf(m.out, "Error in capture cycle: %v\n", err)
		}
		if !sleep(ctx, m.cfg.Interval) {
			return m.stopped()
		}
	}
}

// RunCycle performs one evict, capture, infer, persist, notify pass. The
// cycle span is logged whether the pass succeeds or fails.
func (m *Manager) RunCycle(ctx context.Context) (err error) {
	m.cycle++
	ctx, span := trace.StartSpan(ctx, "capture_cycle")
	span.SetAttr("cycle", m.cycle)
	log := trace.Logger(ctx)
	defer func() {
		span.End()
		switch {
		case err == nil:
			log.Info("cycle complete", "span", span)
		case apperrors.IsFatal(err):
			log.Error("capture cycle failed", "error", err, "code", apperrors.CodeOf(err), "span", span)
		default:
			log.Warn("capture cycle failed", "error", err, "code", apperrors.CodeOf(err), "span", span)
		}
	}()

	evicted := m.evict(ctx)

	path, err := m.capturer.Capture(ctx)
	if err != nil {
		return apperrors.Classify(err, apperrors.CodeCapture, "capture screen")
	}
	m.buf.Push(path)
	span.SetAttr("path", path)
	capturedAt := m.now()
	distance := m.compare(ctx, path)

	result, err := m.infer(ctx, path)
	if err != nil {
		return err
	}

	if err = sidecar.Write(path, result, m.now()); err != nil {
		return apperrors.Classify(err, apperrors.CodePersist, "write sidecar")
	}

	fmt.Fprintln(m.out, result.ModelOutput)
	fmt.Fprintln(m.out, result.Verdict)

	span.SetAttr("verdict", result.Verdict)
	notified := false
	if result.Verdict {
		if err := m.notifier.Notify(ctx, notify.DefaultTitle, notify.DefaultMessage); err != nil {
			return apperrors.Classify(err, apperrors.CodeNotify, "notify")
		}
		notified = true
	}
	span.SetAttr("notified", notified)

	entry := history.Entry{
		Cycle:       m.cycle,
		TraceID:     span.Ctx.TraceID,
		CapturedAt:  capturedAt,
		Path:        path,
		ModelOutput: result.ModelOutput,
		Verdict:     result.Verdict,
		Notified:    notified,
		Evicted:     evicted,
		Distance:    distance,
	}
	m.history.Add(entry)
	m.status.Update(func(s *Status) {
		s.Cycles = m.cycle
		s.Buffer = m.buf.Paths()
		s.Last = &entry
	})

	return nil
}

// evict drops the oldest artifact when the buffer is full. Cleanup failures
// are reported and swallowed; the returned path is the one evicted, if any.
func (m *Manager) evict(ctx context.Context) string {
	if !m.buf.Full() {
		return ""
	}
	oldest, ok := m.buf.EvictOldest()
	if !ok {
		return ""
	}
	if err := sidecar.Remove(oldest); err != nil {
		fmt.Fprintf(m.out, "Error cleaning up screenshot: %v\n", err)
		trace.Logger(ctx).Warn("error cleaning up screenshot", "path", oldest, "error", err)
	}
	return oldest
}

// infer asks the model about path. The only deadline is the configured
// inference timeout; zero leaves the call unbounded.
func (m *Manager) infer(ctx context.Context, path string) (verdict.Result, error) {
	if m.cfg.InferenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.InferenceTimeout)
		defer cancel()
	}

	out, err := m.inference.Ask(ctx, path)
	if err != nil {
		return verdict.Result{}, apperrors.Classify(err, apperrors.CodeInference, "ask model")
	}
	return verdict.NewResult(out), nil
}

// compare returns the perceptual distance between path and the previous capture.
func (m *Manager) compare(ctx context.Context, path string) int {
	hash, err := m.fingerprint(path)
	if err != nil {
		trace.Logger(ctx).Debug("fingerprint failed", "path", path, "error", err)
		m.lastHash = nil
		return -1
	}
	d := screen.Distance(m.lastHash, hash)
	m.lastHash = hash
	trace.Logger(ctx).Debug("frame distance", "distance", d)
	return d
}

func (m *Manager) stopped() error {
	fmt.Fprintln(m.out, "Stopped.")
	slog.Info("capture loop stopped", "cycles", m.cycle, "left_on_disk", m.buf.Len())
	return nil
}

// Status returns a snapshot of the loop state.
func (m *Manager) Status() Status {
	return m.status.Get()
}

// Recent returns up to limit completed cycles, newest first.
func (m *Manager) Recent(limit int) []history.Entry {
	return m.history.Recent(limit)
}

// CycleEvents returns the channel of completed cycles.
func (m *Manager) CycleEvents() <-chan history.Entry {
	return m.history.Events()
}

// sleep waits for d and reports false if ctx was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

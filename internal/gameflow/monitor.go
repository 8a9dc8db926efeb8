package gameflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"riftcap/internal/logging"
)

const (
	phaseReadyCheck        = "ReadyCheck"
	phaseChampSelect       = "ChampSelect"
	phaseNone              = "None"
	phaseLobby             = "Lobby"
	phaseMatchmaking       = "Matchmaking"
	phaseEndOfGame         = "EndOfGame"
	phaseGameComplete      = "GameComplete"
	phaseTerminatedInError = "TerminatedInError"

	queuePracticeTool = "PRACTICE_TOOL"

	defaultReadyTimeout   = 5 * time.Second
	defaultStartSettle    = time.Second
	defaultStopSettle     = 2 * time.Second
	defaultFilenamePrefix = "league"
)

// Capture outcomes persisted to the library.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeDodged    = "dodged"
	OutcomeError     = "error"
)

// Controller is the capability surface of the recording device. Calls never
// fail with an error; failures surface as false or absent results so the
// event loop always makes forward progress.
type Controller interface {
	// Ready is closed once device initialization has finished, whether or
	// not it succeeded.
	Ready() <-chan struct{}
	StartRecording(ctx context.Context) bool
	StopRecording(ctx context.Context) bool
	IsRecording(ctx context.Context) bool
	LastRecordingPath(ctx context.Context) (string, bool)
	RenameLastRecording(ctx context.Context, newPath string) bool
	Disconnect(ctx context.Context)
}

// Library persists the capture history consulted by the recordings command.
type Library interface {
	BeginCapture(ctx context.Context, phase, queueType string) (string, error)
	FinishCapture(ctx context.Context, id, gameID, outputPath, outcome string) error
}

// Notifier pushes capture lifecycle notifications. Implementations must not
// block the event loop beyond their own request timeouts.
type Notifier interface {
	RecordingStarted(ctx context.Context, phase, queueType string)
	RecordingSaved(ctx context.Context, path string)
	DodgeDetected(ctx context.Context, phase string)
}

// Status is a point-in-time snapshot of the monitor for the status command.
type Status struct {
	Phase     string `json:"phase"`
	QueueType string `json:"queue_type"`
	InGame    bool   `json:"in_game"`
	Recording bool   `json:"recording"`
}

// Monitor is the phase state machine. It consumes gameflow session payloads
// from the event stream and issues start, stop, and rename commands to the
// controller. HandleSession must be called from a single goroutine; Status
// and Cleanup are safe from others.
type Monitor struct {
	controller Controller
	library    Library
	notifier   Notifier
	logger     *slog.Logger

	cache         Cache
	ignoredQueues map[string]struct{}
	verbose       bool
	prefix        string

	readyTimeout time.Duration
	startSettle  time.Duration
	stopSettle   time.Duration

	inGame      bool
	isRecording bool
	dodge       Dodge
	captureID   string

	status syncedStatus
}

// MonitorOption customizes monitor construction.
type MonitorOption func(*Monitor)

// WithIgnoredQueues replaces the set of queue types whose transitions are
// tracked but never acted on.
func WithIgnoredQueues(queues map[string]struct{}) MonitorOption {
	return func(m *Monitor) { m.ignoredQueues = queues }
}

// WithVerbose makes the monitor act on ignored queue types as well, for
// debugging against the practice tool.
func WithVerbose(verbose bool) MonitorOption {
	return func(m *Monitor) { m.verbose = verbose }
}

// WithLibrary attaches a capture history store.
func WithLibrary(library Library) MonitorOption {
	return func(m *Monitor) { m.library = library }
}

// WithNotifier attaches a notification sink.
func WithNotifier(notifier Notifier) MonitorOption {
	return func(m *Monitor) { m.notifier = notifier }
}

// WithTimings overrides the readiness wait and the start and stop settle
// pauses.
func WithTimings(readyTimeout, startSettle, stopSettle time.Duration) MonitorOption {
	return func(m *Monitor) {
		if readyTimeout > 0 {
			m.readyTimeout = readyTimeout
		}
		if startSettle >= 0 {
			m.startSettle = startSettle
		}
		if stopSettle >= 0 {
			m.stopSettle = stopSettle
		}
	}
}

// WithFilenamePrefix overrides the leading segment of renamed capture files.
func WithFilenamePrefix(prefix string) MonitorOption {
	return func(m *Monitor) {
		if prefix != "" {
			m.prefix = prefix
		}
	}
}

// NewMonitor builds a monitor around the given controller.
func NewMonitor(controller Controller, logger *slog.Logger, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		controller: controller,
		logger:     logging.WithComponent(logger, "gameflow"),
		ignoredQueues: map[string]struct{}{
			"TUTORIAL_MODULE_1": {},
			"TUTORIAL_MODULE_2": {},
			"TUTORIAL_MODULE_3": {},
			queuePracticeTool:   {},
		},
		prefix:       defaultFilenamePrefix,
		readyTimeout: defaultReadyTimeout,
		startSettle:  defaultStartSettle,
		stopSettle:   defaultStopSettle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// HandleSession consumes one gameflow session payload. It never returns a
// device error; all failures are logged and absorbed so the receive loop
// keeps running.
func (m *Monitor) HandleSession(ctx context.Context, topic string, payload json.RawMessage) error {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		m.logger.Warn("discarding unparseable session payload", logging.Error(err))
		return nil
	}
	if !m.cache.SessionChanged(doc) {
		return nil
	}
	m.cache.StoreSession(doc)

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		m.logger.Warn("session payload has unexpected shape", logging.Error(err))
		return nil
	}
	currentPhase := sess.Data.Phase
	queueType := sess.Data.QueueType()
	m.dodge = ClassifyDodge(sess.Data.GameDodge)

	suppressed := false
	if _, ignored := m.ignoredQueues[queueType]; ignored {
		if m.verbose {
			m.logger.Debug("verbose mode: acting on ignored queue type",
				logging.String(logging.FieldQueueType, queueType))
		} else {
			m.logger.Debug("ignoring queue type",
				logging.String(logging.FieldQueueType, queueType))
			suppressed = true
		}
	}

	previousPhase := m.cache.PreviousPhase()
	if !suppressed && currentPhase != previousPhase {
		m.logger.Info("phase change",
			logging.String(logging.FieldPreviousPhase, orNone(previousPhase)),
			logging.String(logging.FieldPhase, currentPhase),
			logging.String(logging.FieldQueueType, queueType))
		m.updateInGame(currentPhase, queueType)
		m.applyTransition(ctx, currentPhase, previousPhase, queueType, sess)
	}

	// The phase is tracked even when the ignored-queue gate fired, so a
	// later queue switch never acts on a stale transition.
	m.cache.StorePhase(currentPhase)
	m.status.set(Status{
		Phase:     currentPhase,
		QueueType: queueType,
		InGame:    m.inGame,
		Recording: m.isRecording,
	})
	return nil
}

// Status returns the last published snapshot.
func (m *Monitor) Status() Status {
	return m.status.get()
}

func (m *Monitor) updateInGame(phase, queueType string) {
	switch phase {
	case phaseReadyCheck, phaseChampSelect:
		m.inGame = true
	case phaseEndOfGame, phaseGameComplete, phaseNone, phaseLobby:
		m.inGame = false
	case phaseTerminatedInError:
		// Ambiguous upstream signal; only the practice tool terminates
		// this way as part of normal use.
		if queueType == queuePracticeTool {
			m.inGame = false
		}
	}
}

// applyTransition evaluates the recording cases in order; the first match
// wins and at most one action fires per transition.
func (m *Monitor) applyTransition(ctx context.Context, phase, previous, queueType string, sess Session) {
	switch {
	case (phase == phaseReadyCheck || phase == phaseChampSelect) && !m.isRecording:
		m.startRecording(ctx, phase, queueType)

	case phase == phaseNone && (previous == phaseReadyCheck || previous == phaseChampSelect) && m.isRecording:
		m.logger.Warn("game cancelled, stopping recording",
			logging.String(logging.FieldPreviousPhase, previous))
		m.stopRecording(ctx, sess, queueType, OutcomeCancelled)

	case (phase == phaseEndOfGame || phase == phaseGameComplete) && m.isRecording:
		m.stopRecording(ctx, sess, queueType, OutcomeCompleted)

	case phase == phaseTerminatedInError && m.isRecording:
		if queueType == queuePracticeTool {
			m.logger.Debug("ignoring termination error for practice tool")
			return
		}
		m.logger.Warn("game terminated in error, stopping recording")
		m.stopRecording(ctx, sess, queueType, OutcomeError)

	case (phase == phaseLobby || phase == phaseMatchmaking) && m.dodge.Verdict == ConfirmedDodge && m.isRecording:
		m.logger.Warn("game dodged, stopping recording",
			logging.String("dodge_phase", m.dodge.Phase),
			logging.Any("dodge_ids", m.dodge.AffectedIDs))
		if m.notifier != nil {
			m.notifier.DodgeDetected(ctx, m.dodge.Phase)
		}
		m.stopRecording(ctx, sess, queueType, OutcomeDodged)
	}
}

func (m *Monitor) startRecording(ctx context.Context, phase, queueType string) bool {
	select {
	case <-m.controller.Ready():
	case <-time.After(m.readyTimeout):
		m.logger.Error("recording device not ready, skipping start")
		return false
	case <-ctx.Done():
		return false
	}

	m.logger.Info("starting recording", logging.String(logging.FieldPhase, phase))
	if !m.controller.StartRecording(ctx) {
		m.logger.Error("start command rejected by recording device")
		return false
	}
	sleepCtx(ctx, m.startSettle)

	if !m.controller.IsRecording(ctx) {
		m.logger.Error("recording did not start")
		return false
	}
	m.isRecording = true
	m.logger.Info("recording started")
	if m.library != nil {
		id, err := m.library.BeginCapture(ctx, phase, queueType)
		if err != nil {
			m.logger.Error("failed to record capture start", logging.Error(err))
		} else {
			m.captureID = id
		}
	}
	if m.notifier != nil {
		m.notifier.RecordingStarted(ctx, phase, queueType)
	}
	return true
}

func (m *Monitor) stopRecording(ctx context.Context, sess Session, queueType, outcome string) bool {
	if !m.controller.IsRecording(ctx) {
		m.logger.Warn("stop requested but device was not recording")
		m.isRecording = false
		m.finishCapture(ctx, sess, "", outcome)
		return true
	}

	m.logger.Info("stopping recording")
	if !m.controller.StopRecording(ctx) {
		m.logger.Error("stop command rejected by recording device")
	}
	sleepCtx(ctx, m.stopSettle)

	if m.controller.IsRecording(ctx) {
		m.logger.Error("recording did not stop")
		return false
	}
	m.isRecording = false
	m.logger.Info("recording stopped",
		logging.String(logging.FieldGameID, sess.Data.GameID()),
		logging.String("outcome", outcome))

	finalPath := ""
	ok := true
	if lastPath, found := m.controller.LastRecordingPath(ctx); found {
		target := m.renameTarget(lastPath, queueType, sess.Data.GameID())
		if m.controller.RenameLastRecording(ctx, target) {
			finalPath = target
			m.logger.Info("capture renamed", logging.String("path", target))
			if m.notifier != nil {
				m.notifier.RecordingSaved(ctx, target)
			}
		} else {
			// The stop outcome stands even when the rename fails.
			finalPath = lastPath
			m.logger.Error("failed to rename capture", logging.String("path", lastPath))
			ok = false
		}
	}
	m.finishCapture(ctx, sess, finalPath, outcome)
	return ok
}

// renameTarget builds the final capture path next to the original, from the
// flattened queue type and the game identifier, keeping the extension.
func (m *Monitor) renameTarget(lastPath, queueType, gameID string) string {
	queueName := strings.ReplaceAll(strings.ToLower(queueType), "_", "")
	name := m.prefix + "_" + queueName + "_game_" + gameID + filepath.Ext(lastPath)
	return filepath.Join(filepath.Dir(lastPath), name)
}

func (m *Monitor) finishCapture(ctx context.Context, sess Session, outputPath, outcome string) {
	if m.library == nil || m.captureID == "" {
		return
	}
	if err := m.library.FinishCapture(ctx, m.captureID, sess.Data.GameID(), outputPath, outcome); err != nil {
		m.logger.Error("failed to record capture finish", logging.Error(err))
	}
	m.captureID = ""
}

// Cleanup stops any active recording and disconnects the device. It never
// fails; teardown must always complete.
func (m *Monitor) Cleanup(ctx context.Context) {
	if m.isRecording {
		if !m.controller.StopRecording(ctx) {
			m.logger.Debug("failed to stop recording during cleanup")
		}
		m.isRecording = false
	}
	m.controller.Disconnect(ctx)
	m.logger.Info("monitor cleaned up")
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func orNone(phase string) string {
	if phase == "" {
		return phaseNone
	}
	return phase
}

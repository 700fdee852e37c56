package spelling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/difficulty"
	"github.com/abhisek/studybuddy/internal/metrics"
)

// WordLevel is the difficulty spelling lists are generated at.
const WordLevel = difficulty.Medium

// Learner identifies who is practicing and where results are filed.
type Learner struct {
	ParentID string
	ChildID  string
	Grade    string
}

// Deps are the collaborators a session needs.
type Deps struct {
	Source     content.Source
	Speaker    Speaker
	Recognizer Recognizer
	Saver      ResultSaver
	Metrics    *metrics.Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	Status Status

	// Index is the zero-based position of the current word.
	Index int
	Total int
	Word  string

	Correct  int
	Feedback Feedback

	// Err is the last problem worth showing the learner, such as a
	// RecognitionError. It clears on the next command.
	Err error

	// Score is set once finished.
	Score float64
}

// Session is one run through a spelling list. All state changes happen
// on a single goroutine that consumes commands and speech callbacks.
type Session struct {
	ID string

	deps    Deps
	learner Learner
	cfg     Config

	ctx    context.Context
	cancel context.CancelFunc

	events  chan event
	updates chan Snapshot
	done    chan struct{}

	mu     sync.Mutex
	snap   Snapshot
	result *Result

	// Owned by the loop goroutine.
	words    []string
	index    int
	correct  int
	status   Status
	feedback Feedback
	lastErr  error

	// token identifies the current asynchronous operation. Callbacks
	// and timers carrying an older token are stale and dropped.
	token    uint64
	opCancel context.CancelFunc
	timer    *time.Timer
}

// Start fetches a word list and begins a session in StatusIdle. It fails
// with ErrUnsupportedEnvironment when speech I/O is missing and with a
// content.GenerationError when no usable list could be produced.
func Start(ctx context.Context, deps Deps, l Learner, cfg Config) (*Session, error) {
	if deps.Speaker == nil || deps.Recognizer == nil || !deps.Recognizer.Available() {
		return nil, ErrUnsupportedEnvironment
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	words, err := fetchWords(ctx, deps.Source, l.Grade, cfg.WordCount)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:      uuid.NewString(),
		deps:    deps,
		learner: l,
		cfg:     cfg,
		ctx:     sctx,
		cancel:  cancel,
		events:  make(chan event, 32),
		updates: make(chan Snapshot, 1),
		done:    make(chan struct{}),
		words:   words,
		status:  StatusIdle,
	}
	s.snap = s.snapshot()

	slog.InfoContext(ctx, "spelling session started", "session", s.ID, "child", l.ChildID, "words", len(words))
	go s.run()
	return s, nil
}

func fetchWords(ctx context.Context, src content.Source, grade string, limit int) ([]string, error) {
	fail := func(err error) error {
		return &content.GenerationError{Op: "generate spelling words", Grade: grade, Level: WordLevel, Err: err}
	}

	words, err := src.GenerateSpellingWords(ctx, grade, WordLevel)
	if err != nil {
		if errors.Is(err, content.ErrContentGeneration) {
			return nil, fmt.Errorf("start spelling session: %w", err)
		}
		return nil, fail(err)
	}
	words, err = content.NormalizeWords(words)
	if err != nil {
		return nil, fail(err)
	}
	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return words, nil
}

// HearWord reads the current word aloud. Ignored unless idle.
func (s *Session) HearWord() { s.post(cmdHearWord{}) }

// StartListening waits for the learner's spelling. Ignored unless idle.
func (s *Session) StartListening() { s.post(cmdStartListening{}) }

// End abandons the session. Nothing is saved unless it already finished.
// It returns once the session goroutine has stopped.
func (s *Session) End() {
	s.post(cmdEnd{})
	<-s.done
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Updates delivers the latest snapshot after every state change. Only the
// newest unread snapshot is kept. The channel closes when the session stops.
func (s *Session) Updates() <-chan Snapshot { return s.updates }

// Done is closed once the session has finished or ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// Result returns the saved result once the session has finished.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

type event any

type (
	cmdHearWord       struct{}
	cmdStartListening struct{}
	cmdEnd            struct{}

	speechDone struct{ token uint64 }

	heard struct {
		token      uint64
		transcript string
	}

	notHeard struct {
		token uint64
		err   error
	}

	timerFired struct {
		token uint64
		kind  timerKind
	}
)

type timerKind int

const (
	timerAutoListen timerKind = iota
	timerListenTimeout
	timerAdvance
)

// post delivers ev to the loop, or drops it once the loop has stopped.
func (s *Session) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// callback posts from outside the loop without blocking the caller, so
// adapters may invoke callbacks synchronously.
func (s *Session) callback(ev event) {
	go s.post(ev)
}

func (s *Session) run() {
	defer func() {
		s.stopOp()
		s.cancel()
		close(s.updates)
		close(s.done)
	}()

	for {
		select {
		case <-s.ctx.Done():
			s.abandon()
			return
		case ev := <-s.events:
			stop := s.handle(ev)
			s.publish()
			if stop {
				return
			}
		}
	}
}

// handle applies one event and reports whether the session is over.
func (s *Session) handle(ev event) bool {
	switch e := ev.(type) {
	case cmdHearWord:
		if s.status == StatusIdle {
			s.speakWord()
		}

	case cmdStartListening:
		if s.status == StatusIdle {
			s.listen()
		}

	case cmdEnd:
		s.abandon()
		return true

	case speechDone:
		if e.token != s.token {
			return false
		}
		switch s.status {
		case StatusSpeaking:
			s.status = StatusIdle
			if s.cfg.AutoListen {
				s.begin()
				s.after(s.cfg.PromptDelay, timerAutoListen)
			}
		case StatusFeedback:
			s.afterFeedback()
		}

	case heard:
		if e.token == s.token && s.status == StatusListening {
			s.judge(e.transcript)
		}

	case notHeard:
		if e.token == s.token && s.status == StatusListening {
			s.recognitionFailed(e.err)
		}

	case timerFired:
		if e.token != s.token {
			return false
		}
		switch {
		case e.kind == timerAutoListen && s.status == StatusIdle:
			s.listen()
		case e.kind == timerListenTimeout && s.status == StatusListening:
			s.recognitionFailed(ErrListenTimeout)
		case e.kind == timerAdvance && s.status == StatusFeedback:
			return s.advance()
		}
	}
	return false
}

// begin starts a new asynchronous operation, cancelling the previous one.
func (s *Session) begin() (uint64, context.Context) {
	s.stopOp()
	s.token++
	ctx, cancel := context.WithCancel(s.ctx)
	s.opCancel = cancel
	return s.token, ctx
}

func (s *Session) stopOp() {
	if s.opCancel != nil {
		s.opCancel()
		s.opCancel = nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// after fires a timer event tagged with the current token.
func (s *Session) after(d time.Duration, kind timerKind) {
	tok := s.token
	s.timer = time.AfterFunc(d, func() {
		s.post(timerFired{token: tok, kind: kind})
	})
}

func (s *Session) speakWord() {
	s.lastErr = nil
	tok, ctx := s.begin()
	s.status = StatusSpeaking

	err := s.deps.Speaker.Speak(ctx, s.words[s.index], func() {
		s.callback(speechDone{token: tok})
	})
	if err != nil {
		slog.WarnContext(ctx, "speech output failed", "session", s.ID, "error", err)
		s.stopOp()
		s.status = StatusIdle
		s.lastErr = fmt.Errorf("could not read the word aloud: %w", err)
	}
}

func (s *Session) listen() {
	if !s.deps.Recognizer.Available() {
		return
	}
	s.lastErr = nil
	tok, ctx := s.begin()
	s.status = StatusListening

	err := s.deps.Recognizer.Listen(ctx,
		func(transcript string) { s.callback(heard{token: tok, transcript: transcript}) },
		func(err error) { s.callback(notHeard{token: tok, err: err}) },
	)
	if err != nil {
		s.recognitionFailed(err)
		return
	}
	if s.cfg.ListenTimeout > 0 {
		s.after(s.cfg.ListenTimeout, timerListenTimeout)
	}
}

func (s *Session) recognitionFailed(err error) {
	slog.InfoContext(s.ctx, "speech recognition failed", "session", s.ID, "word", s.index, "error", err)
	s.stopOp()
	s.token++
	s.status = StatusIdle
	s.lastErr = &RecognitionError{Err: err}
}

func (s *Session) judge(transcript string) {
	word := s.words[s.index]
	tok, ctx := s.begin()
	s.status = StatusFeedback

	text := correctionText(word)
	if Matches(transcript, word) {
		s.correct++
		s.feedback = FeedbackCorrect
		text = affirmationText
	} else {
		s.feedback = FeedbackIncorrect
	}

	err := s.deps.Speaker.Speak(ctx, text, func() {
		s.callback(speechDone{token: tok})
	})
	if err != nil {
		slog.WarnContext(ctx, "feedback speech failed", "session", s.ID, "error", err)
		s.afterFeedback()
	}
}

func (s *Session) afterFeedback() {
	d := s.cfg.IncorrectDelay
	if s.feedback == FeedbackCorrect {
		d = s.cfg.CorrectDelay
	}
	s.after(d, timerAdvance)
}

// advance moves to the next word, or finishes after the last one.
func (s *Session) advance() bool {
	s.stopOp()
	s.token++
	s.feedback = FeedbackNone
	if s.index == len(s.words)-1 {
		s.finish()
		return true
	}
	s.index++
	s.status = StatusIdle
	s.lastErr = nil
	return false
}

func (s *Session) finish() {
	s.status = StatusFinished
	r := Result{
		Words:     slices.Clone(s.words),
		Score:     Score(s.correct, len(s.words)),
		Timestamp: s.deps.Now().UTC(),
	}

	s.mu.Lock()
	s.result = &r
	s.mu.Unlock()

	s.deps.Metrics.SpellingSession(metrics.OutcomeFinished)
	slog.InfoContext(s.ctx, "spelling session finished", "session", s.ID, "child", s.learner.ChildID, "score", r.Score)

	if s.deps.Saver != nil {
		if err := s.deps.Saver.SaveSpellingResult(s.ctx, s.learner.ParentID, s.learner.ChildID, r); err != nil {
			slog.ErrorContext(s.ctx, "failed to save spelling result", "session", s.ID, "error", err)
			s.lastErr = fmt.Errorf("save spelling result: %w", err)
			return
		}
	}
	if s.cfg.OnFinished != nil {
		s.cfg.OnFinished(r)
	}
}

func (s *Session) abandon() {
	if s.status == StatusFinished {
		return
	}
	s.deps.Metrics.SpellingSession(metrics.OutcomeAbandoned)
	slog.InfoContext(s.ctx, "spelling session ended early", "session", s.ID, "word", s.index)
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		Status:   s.status,
		Index:    s.index,
		Total:    len(s.words),
		Word:     s.words[s.index],
		Correct:  s.correct,
		Feedback: s.feedback,
		Err:      s.lastErr,
	}
	if s.status == StatusFinished {
		snap.Score = Score(s.correct, len(s.words))
	}
	return snap
}

// publish stores the snapshot and replaces any unread update.
func (s *Session) publish() {
	snap := s.snapshot()
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}

package spelling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/difficulty"
	"github.com/abhisek/studybuddy/internal/metrics"
)

type wordSource struct {
	words  []string
	err    error
	levels []difficulty.Level
}

func (w *wordSource) GenerateDailyContent(context.Context, string, difficulty.Level) (*content.DailyContent, error) {
	return nil, errors.New("not used")
}

func (w *wordSource) GenerateSpellingWords(_ context.Context, _ string, level difficulty.Level) ([]string, error) {
	w.levels = append(w.levels, level)
	return w.words, w.err
}

type utterance struct {
	text string
	done func()
}

// scriptedSpeaker hands every utterance to the test, which decides when
// playback finishes.
type scriptedSpeaker struct {
	utterances chan utterance
	err        error
}

func newScriptedSpeaker() *scriptedSpeaker {
	return &scriptedSpeaker{utterances: make(chan utterance, 8)}
}

func (s *scriptedSpeaker) Speak(_ context.Context, text string, done func()) error {
	if s.err != nil {
		return s.err
	}
	s.utterances <- utterance{text: text, done: done}
	return nil
}

type listenCall struct {
	ctx      context.Context
	onResult func(string)
	onError  func(error)
}

type scriptedRecognizer struct {
	available bool
	listens   chan listenCall
}

func newScriptedRecognizer() *scriptedRecognizer {
	return &scriptedRecognizer{available: true, listens: make(chan listenCall, 8)}
}

func (r *scriptedRecognizer) Available() bool { return r.available }

func (r *scriptedRecognizer) Listen(ctx context.Context, onResult func(string), onError func(error)) error {
	r.listens <- listenCall{ctx: ctx, onResult: onResult, onError: onError}
	return nil
}

type recordingSaver struct {
	mu      sync.Mutex
	results []Result
	keys    []string
}

func (r *recordingSaver) SaveSpellingResult(_ context.Context, parentID, childID string, res Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	r.keys = append(r.keys, parentID+"/"+childID)
	return nil
}

func (r *recordingSaver) saved() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

type harness struct {
	session    *Session
	speaker    *scriptedSpeaker
	recognizer *scriptedRecognizer
	saver      *recordingSaver
	source     *wordSource
}

var learner = Learner{ParentID: "parent-1", ChildID: "child-1", Grade: "2"}

func fastConfig() Config {
	return Config{
		WordCount:      10,
		PromptDelay:    time.Millisecond,
		CorrectDelay:   time.Millisecond,
		IncorrectDelay: 2 * time.Millisecond,
	}
}

func start(t *testing.T, words []string, cfg Config) *harness {
	t.Helper()
	h := &harness{
		speaker:    newScriptedSpeaker(),
		recognizer: newScriptedRecognizer(),
		saver:      &recordingSaver{},
		source:     &wordSource{words: words},
	}
	s, err := Start(context.Background(), Deps{
		Source:     h.source,
		Speaker:    h.speaker,
		Recognizer: h.recognizer,
		Saver:      h.saver,
		Metrics:    metrics.New(),
		Now:        func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
	}, learner, cfg)
	require.NoError(t, err)
	t.Cleanup(s.End)
	h.session = s
	return h
}

func (h *harness) waitFor(t *testing.T, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool { return cond(h.session.Snapshot()) }, time.Second, time.Millisecond)
	return h.session.Snapshot()
}

func (h *harness) waitStatus(t *testing.T, status Status) Snapshot {
	t.Helper()
	return h.waitFor(t, func(s Snapshot) bool { return s.Status == status })
}

func (h *harness) nextUtterance(t *testing.T) utterance {
	t.Helper()
	select {
	case u := <-h.speaker.utterances:
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for speech")
		return utterance{}
	}
}

func (h *harness) nextListen(t *testing.T) listenCall {
	t.Helper()
	select {
	case l := <-h.recognizer.listens:
		return l
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for listen")
		return listenCall{}
	}
}

// answer plays one word through hear → listen → judge → feedback.
func (h *harness) answer(t *testing.T, word, transcript, feedback string) {
	t.Helper()
	h.session.HearWord()
	u := h.nextUtterance(t)
	require.Equal(t, word, u.text)
	h.waitStatus(t, StatusSpeaking)
	u.done()
	h.waitStatus(t, StatusIdle)

	h.session.StartListening()
	l := h.nextListen(t)
	h.waitStatus(t, StatusListening)
	l.onResult(transcript)

	fb := h.nextUtterance(t)
	require.Equal(t, feedback, fb.text)
	h.waitStatus(t, StatusFeedback)
	fb.done()
}

func TestSession_ScoresAndSavesOnce(t *testing.T) {
	h := start(t, []string{"cat", "dog"}, fastConfig())

	h.answer(t, "cat", "C-A-T!", "Correct!")
	snap := h.waitFor(t, func(s Snapshot) bool { return s.Status == StatusIdle && s.Index == 1 })
	assert.Equal(t, 1, snap.Correct)
	assert.Equal(t, FeedbackNone, snap.Feedback)

	h.answer(t, "dog", "dogg", "Sorry, the word was dog. Let's try the next one.")

	select {
	case <-h.session.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not finish")
	}

	final := h.session.Snapshot()
	assert.Equal(t, StatusFinished, final.Status)
	assert.Equal(t, 1, final.Correct)
	assert.Equal(t, 50.0, final.Score)

	saved := h.saver.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, []string{"cat", "dog"}, saved[0].Words)
	assert.Equal(t, 50.0, saved[0].Score)
	assert.Equal(t, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), saved[0].Timestamp)
	assert.Equal(t, []string{"parent-1/child-1"}, h.saver.keys)

	res, ok := h.session.Result()
	require.True(t, ok)
	assert.Equal(t, saved[0], res)
}

func TestSession_FeedbackState(t *testing.T) {
	h := start(t, []string{"cat", "dog"}, fastConfig())

	h.session.HearWord()
	h.nextUtterance(t).done()
	h.waitStatus(t, StatusIdle)
	h.session.StartListening()
	h.nextListen(t).onResult("cat")

	snap := h.waitStatus(t, StatusFeedback)
	assert.Equal(t, FeedbackCorrect, snap.Feedback)
	assert.Equal(t, 1, snap.Correct)
	assert.Equal(t, 0, snap.Index, "advance waits for the feedback speech")
}

func TestSession_RecognitionErrorKeepsWord(t *testing.T) {
	h := start(t, []string{"cat", "dog"}, fastConfig())

	h.session.StartListening()
	first := h.nextListen(t)
	h.waitStatus(t, StatusListening)
	first.onError(errors.New("network"))

	snap := h.waitStatus(t, StatusIdle)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 0, snap.Correct)
	assert.ErrorIs(t, snap.Err, ErrRecognition)
	assert.Error(t, first.ctx.Err(), "failed listen is cancelled")

	h.session.StartListening()
	second := h.nextListen(t)
	snap = h.waitStatus(t, StatusListening)
	assert.NoError(t, snap.Err)

	// A late reply to the abandoned listen must not be judged.
	first.onResult("cat")
	time.Sleep(20 * time.Millisecond)
	snap = h.session.Snapshot()
	assert.Equal(t, StatusListening, snap.Status)
	assert.Equal(t, 0, snap.Correct)

	second.onResult("cat")
	snap = h.waitStatus(t, StatusFeedback)
	assert.Equal(t, 1, snap.Correct)
}

func TestSession_ListenTimeout(t *testing.T) {
	cfg := fastConfig()
	cfg.ListenTimeout = 10 * time.Millisecond
	h := start(t, []string{"cat"}, cfg)

	h.session.StartListening()
	l := h.nextListen(t)

	snap := h.waitFor(t, func(s Snapshot) bool { return s.Status == StatusIdle && s.Err != nil })
	assert.ErrorIs(t, snap.Err, ErrRecognition)
	assert.ErrorIs(t, snap.Err, ErrListenTimeout)
	assert.Equal(t, 0, snap.Index)
	assert.Error(t, l.ctx.Err())
}

func TestSession_AutoListenAfterPrompt(t *testing.T) {
	cfg := fastConfig()
	cfg.AutoListen = true
	h := start(t, []string{"cat", "dog"}, cfg)

	h.session.HearWord()
	h.nextUtterance(t).done()

	l := h.nextListen(t)
	h.waitStatus(t, StatusListening)
	l.onResult("kat")

	fb := h.nextUtterance(t)
	assert.Equal(t, "Sorry, the word was cat. Let's try the next one.", fb.text)
	snap := h.waitStatus(t, StatusFeedback)
	assert.Equal(t, FeedbackIncorrect, snap.Feedback)
}

func TestSession_IgnoresCommandsOutOfState(t *testing.T) {
	h := start(t, []string{"cat"}, fastConfig())

	h.session.HearWord()
	u := h.nextUtterance(t)
	h.waitStatus(t, StatusSpeaking)

	h.session.HearWord()
	h.session.StartListening()
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, h.speaker.utterances, "speech must not overlap")
	assert.Empty(t, h.recognizer.listens, "listening must wait for speech to end")
	assert.Equal(t, StatusSpeaking, h.session.Snapshot().Status)

	u.done()
	h.waitStatus(t, StatusIdle)
}

func TestSession_EndBeforeFinishSavesNothing(t *testing.T) {
	h := start(t, []string{"cat", "dog"}, fastConfig())

	h.answer(t, "cat", "cat", "Correct!")
	h.waitFor(t, func(s Snapshot) bool { return s.Index == 1 })

	h.session.End()

	select {
	case <-h.session.Done():
	default:
		t.Fatal("End must stop the session")
	}
	assert.Empty(t, h.saver.saved())
	_, ok := h.session.Result()
	assert.False(t, ok)

	// Commands after End are harmless.
	h.session.HearWord()
	h.session.StartListening()
}

func TestSession_UpdatesCloseWhenDone(t *testing.T) {
	h := start(t, []string{"cat"}, fastConfig())

	h.session.HearWord()
	h.nextUtterance(t)

	var last Snapshot
	go h.session.End()
	for snap := range h.session.Updates() {
		last = snap
	}
	assert.Equal(t, StatusSpeaking, last.Status)
}

func TestStart_Errors(t *testing.T) {
	t.Run("no speech input", func(t *testing.T) {
		rec := newScriptedRecognizer()
		rec.available = false
		src := &wordSource{words: []string{"cat"}}

		_, err := Start(context.Background(), Deps{Source: src, Speaker: newScriptedSpeaker(), Recognizer: rec}, learner, fastConfig())
		assert.ErrorIs(t, err, ErrUnsupportedEnvironment)
		assert.Empty(t, src.levels, "no words are fetched")
	})

	t.Run("no speech output", func(t *testing.T) {
		_, err := Start(context.Background(), Deps{Source: &wordSource{}, Recognizer: newScriptedRecognizer()}, learner, fastConfig())
		assert.ErrorIs(t, err, ErrUnsupportedEnvironment)
	})

	for name, src := range map[string]*wordSource{
		"source error": {err: errors.New("quota")},
		"empty list":   {words: []string{}},
		"bad word":     {words: []string{"cat", "two words"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Start(context.Background(), Deps{
				Source:     src,
				Speaker:    newScriptedSpeaker(),
				Recognizer: newScriptedRecognizer(),
			}, learner, fastConfig())
			assert.ErrorIs(t, err, content.ErrContentGeneration)
		})
	}
}

func TestStart_FetchesMediumWords(t *testing.T) {
	cfg := fastConfig()
	cfg.WordCount = 2
	h := start(t, []string{"Cat", "dog", "sun"}, cfg)

	assert.Equal(t, []difficulty.Level{difficulty.Medium}, h.source.levels)
	snap := h.session.Snapshot()
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, "cat", snap.Word)
	assert.Equal(t, StatusIdle, snap.Status)
	assert.NotEmpty(t, h.session.ID)
}

func TestSession_SpeakerFailureStaysIdle(t *testing.T) {
	h := start(t, []string{"cat"}, fastConfig())
	h.speaker.err = errors.New("no audio device")

	h.session.HearWord()
	snap := h.waitFor(t, func(s Snapshot) bool { return s.Err != nil })
	assert.Equal(t, StatusIdle, snap.Status)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		transcript string
		word       string
		want       bool
	}{
		{"cat", "cat", true},
		{"C A T", "cat", true},
		{"c-a-t.", "cat", true},
		{"Cat!", "CAT", true},
		{"cats", "cat", false},
		{"kat", "cat", false},
		{"", "cat", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.transcript, tt.word), "%q vs %q", tt.transcript, tt.word)
	}
	assert.Equal(t, "dont", Normalize("Don't"))
}

func TestScore(t *testing.T) {
	assert.Equal(t, 50.0, Score(1, 2))
	assert.Equal(t, 100.0, Score(10, 10))
	assert.Equal(t, 0.0, Score(0, 0))
}

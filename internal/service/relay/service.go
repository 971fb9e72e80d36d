// Package relay owns the relay's process-wide state: the popup session,
// the window visibility and the only writer to the mpv pipe.
//
// Every input (HTTP commands, popup events, fetch results, the debounce
// timer and the parent watchdog) is posted as an event to a single loop
// goroutine started by Run.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
	"github.com/heartmarshall/yomipv-lookup/internal/glossary"
	"github.com/heartmarshall/yomipv-lookup/internal/service/overlay"
	"github.com/heartmarshall/yomipv-lookup/internal/service/selection"
)

// Dictionary looks terms up in the dictionary service.
type Dictionary interface {
	Lookup(ctx context.Context, term string, wantFrequencies bool) (domain.LookupResult, error)
}

// Window is the popup surface.
type Window interface {
	ShowInactive()
	Hide()
	Render(v overlay.View)
}

// Forwarder sends script messages to mpv.
type Forwarder interface {
	Send(kind, payload string) error
	Close() error
}

// Messages names the script messages sent to mpv.
type Messages struct {
	Selection   string
	Dictionary  string
	ActiveEntry string
}

// Config tunes the relay loop.
type Config struct {
	Messages          Messages
	ShutdownGrace     time.Duration
	SelectionDebounce time.Duration
}

// Service is the relay loop and its inputs.
type Service struct {
	dict   Dictionary
	window Window
	pipe   Forwarder
	cfg    Config
	log    *slog.Logger

	events    chan event
	done      chan struct{}
	state     atomic.Int32
	debouncer *selection.Debouncer

	// Owned by the loop goroutine.
	session     *overlay.Session
	latest      uint64
	cancelFetch context.CancelFunc
	exit        <-chan time.Time
}

// NewService creates a Service. Run must be called to process events.
func NewService(dict Dictionary, window Window, pipe Forwarder, reader overlay.Reader, cfg Config, logger *slog.Logger) *Service {
	s := &Service{
		dict:    dict,
		window:  window,
		pipe:    pipe,
		cfg:     cfg,
		log:     logger.With("service", "relay"),
		events:  make(chan event, 32),
		done:    make(chan struct{}),
		session: overlay.NewSession(reader),
	}
	s.debouncer = selection.NewDebouncer(cfg.SelectionDebounce, func(text string) {
		s.post(event{kind: evSelection, text: text})
	})
	return s
}

// State returns the current lifecycle stage.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Done is closed when the loop has exited.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Lookup shows the popup for req and starts fetching its entries.
func (s *Service) Lookup(req domain.LookupRequest) {
	s.post(event{kind: evLookup, request: req})
}

// Hide hides the popup.
func (s *Service) Hide() {
	s.post(event{kind: evHide})
}

// Shutdown closes the pipe and stops the loop after the grace delay.
func (s *Service) Shutdown() {
	s.post(event{kind: evShutdown})
}

// ParentGone closes the pipe and stops the loop immediately.
func (s *Service) ParentGone() {
	s.post(event{kind: evParentGone})
}

// Navigate moves the popup to the next (step > 0) or previous entry.
func (s *Service) Navigate(step int) {
	s.post(event{kind: evNavigate, step: step})
}

// SelectionChanged relays the popup's text selection after the debounce delay.
func (s *Service) SelectionChanged(text string) {
	s.debouncer.Push(selection.Format(text))
}

// DictionarySelected relays the chosen dictionary block.
func (s *Service) DictionarySelected(dictionary, blockHTML string) {
	s.post(event{kind: evDictionary, dictionary: dictionary, text: blockHTML})
}

func (s *Service) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Run processes events until ctx is cancelled or the relay terminates.
func (s *Service) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.teardown()

	s.setState(StateIdle)
	s.log.Info("relay loop started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.exit:
			s.log.Info("relay loop stopped")
			return nil
		case ev := <-s.events:
			s.handle(ctx, ev)
		}
	}
}

func (s *Service) handle(ctx context.Context, ev event) {
	if s.State() == StateTerminating {
		s.log.Debug("ignoring event while terminating", slog.Int("kind", int(ev.kind)))
		return
	}

	switch ev.kind {
	case evLookup:
		s.startLookup(ctx, ev.request)
	case evFetched:
		s.finishLookup(ev)
	case evHide:
		s.window.Hide()
		s.setState(StateIdle)
	case evNavigate:
		s.navigate(ev.step)
	case evSelection:
		s.forward(s.cfg.Messages.Selection, ev.text)
	case evDictionary:
		s.forwardDictionary(ev.dictionary, ev.text)
	case evShutdown:
		s.terminate("shutdown requested", s.cfg.ShutdownGrace)
	case evParentGone:
		s.terminate("parent process gone", 0)
	}
}

func (s *Service) startLookup(ctx context.Context, req domain.LookupRequest) {
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	s.latest++
	id := s.latest

	s.log.Info("lookup", slog.String("term", req.Term), slog.Uint64("id", id))

	s.window.Render(s.session.Begin(req))
	s.window.ShowInactive()
	s.setState(StateShowingPopup)

	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancelFetch = cancel
	go func() {
		result, err := s.dict.Lookup(fetchCtx, req.Term, req.ShowFrequencies)
		s.post(event{kind: evFetched, id: id, result: result, err: err})
	}()
}

func (s *Service) finishLookup(ev event) {
	if ev.id != s.latest {
		s.log.Debug("discarding stale lookup result", slog.Uint64("id", ev.id), slog.Uint64("latest", s.latest))
		return
	}
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}

	var view overlay.View
	if ev.err != nil {
		s.log.Warn("lookup failed", slog.String("term", s.session.Request().Term), slog.String("error", ev.err.Error()))
		view = s.session.Fail(ev.err)
	} else {
		view = s.session.Load(ev.result)
	}

	s.window.Render(view)
	s.reportActive()
}

func (s *Service) navigate(step int) {
	var (
		view overlay.View
		ok   bool
	)
	if step < 0 {
		view, ok = s.session.Prev()
	} else {
		view, ok = s.session.Next()
	}
	if !ok {
		return
	}
	s.window.Render(view)
	s.reportActive()
}

func (s *Service) reportActive() {
	active := s.session.Active()
	if active.Sequence == 0 || s.cfg.Messages.ActiveEntry == "" {
		return
	}
	payload, err := json.Marshal(active)
	if err != nil {
		s.log.Error("encode active entry", slog.String("error", err.Error()))
		return
	}
	s.forward(s.cfg.Messages.ActiveEntry, string(payload))
}

func (s *Service) forwardDictionary(dictionary, blockHTML string) {
	payload, err := glossary.ExportBlock(blockHTML, s.session.StyleSheet(), dictionary)
	if err != nil {
		s.log.Warn("export dictionary block", slog.String("dictionary", dictionary), slog.String("error", err.Error()))
		return
	}
	s.log.Debug("dictionary selected", slog.String("dictionary", dictionary))
	s.forward(s.cfg.Messages.Dictionary, payload)
}

func (s *Service) forward(kind, payload string) {
	err := s.pipe.Send(kind, payload)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotConnected):
		s.log.Debug("mpv pipe not connected, message dropped", slog.String("kind", kind))
	default:
		s.log.Warn("forward to mpv failed", slog.String("kind", kind), slog.String("error", err.Error()))
	}
}

func (s *Service) terminate(reason string, grace time.Duration) {
	s.log.Info("terminating", slog.String("reason", reason), slog.Duration("grace", grace))
	s.setState(StateTerminating)

	s.debouncer.Stop()
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	if err := s.pipe.Close(); err != nil {
		s.log.Debug("close mpv pipe", slog.String("error", err.Error()))
	}
	s.exit = time.After(grace)
}

func (s *Service) teardown() {
	s.setState(StateTerminating)
	s.debouncer.Stop()
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	if err := s.pipe.Close(); err != nil {
		s.log.Debug("close mpv pipe", slog.String("error", err.Error()))
	}
}

func (s *Service) setState(st State) {
	if prev := State(s.state.Swap(int32(st))); prev != st {
		s.log.Debug("state", slog.String("from", prev.String()), slog.String("to", st.String()))
	}
}

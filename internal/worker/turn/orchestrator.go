// Package turn runs the per-session conversation state machine: persona reply first,
// then background classification, extraction, merge and report.
package turn

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Mayank-Dandane/honeypot-api/internal/callback"
	"github.com/Mayank-Dandane/honeypot-api/internal/engagement"
	"github.com/Mayank-Dandane/honeypot-api/internal/worker/sdk"
	"github.com/Mayank-Dandane/honeypot-api/internal/worker/session"
	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

const (
	// DefaultTimeout bounds every collaborator call.
	DefaultTimeout = 8 * time.Second
	// DefaultConcurrency is how many turns may be analyzed at once.
	DefaultConcurrency = 8
	// DefaultPriorWindow is how many earlier scammer messages the classifier sees.
	DefaultPriorWindow = 4
)

// Reporter delivers the final report for a session.
type Reporter interface {
	Send(ctx context.Context, s models.Session) callback.Result
}

// Archiver records report dispatches.
type Archiver interface {
	Archive(ctx context.Context, res callback.Result) error
}

// Orchestrator processes inbound turns.
type Orchestrator struct {
	store      *session.Manager
	replies    *engagement.ReplyPolicy
	classifier sdk.Classifier
	extractor  sdk.Extractor
	persona    sdk.PersonaGenerator
	reporter   Reporter
	archive    Archiver
	events     Publisher
	sem        *semaphore.Weighted

	turns     metric.Int64Counter
	fallbacks metric.Int64Counter
	confirmed metric.Int64Counter
	analysis  metric.Float64Histogram

	policy      ReportPolicy
	timeout     time.Duration
	priorWindow int
	concurrency int64
	wg          sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClassifier sets the classifier. The default is the rule classifier.
func WithClassifier(c sdk.Classifier) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.classifier = c
		}
	}
}

// WithExtractor sets the extractor. The default is the regex extractor.
func WithExtractor(e sdk.Extractor) Option {
	return func(o *Orchestrator) {
		if e != nil {
			o.extractor = e
		}
	}
}

// WithPersona sets the persona generator. Without one every reply comes from the fallback catalog.
func WithPersona(p sdk.PersonaGenerator) Option {
	return func(o *Orchestrator) { o.persona = p }
}

// WithReporter sets the report dispatcher.
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithArchive records every dispatch.
func WithArchive(a Archiver) Option {
	return func(o *Orchestrator) { o.archive = a }
}

// WithPublisher sets the live event sink.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) { o.events = p }
}

// WithReportPolicy sets the report thresholds.
func WithReportPolicy(p ReportPolicy) Option {
	return func(o *Orchestrator) { o.policy = p.Normalize() }
}

// WithTimeout sets the per-call collaborator timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithConcurrency limits how many turns are analyzed in parallel.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = int64(n)
		}
	}
}

// New creates an Orchestrator over store. A nil replies policy uses the embedded catalog.
func New(store *session.Manager, replies *engagement.ReplyPolicy, opts ...Option) *Orchestrator {
	if replies == nil {
		replies = engagement.NewReplyPolicy(nil, 0, 0)
	}
	o := &Orchestrator{
		store:       store,
		replies:     replies,
		classifier:  sdk.RuleClassifier{},
		extractor:   sdk.RegexExtractor{},
		policy:      DefaultReportPolicy(),
		timeout:     DefaultTimeout,
		priorWindow: DefaultPriorWindow,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.sem = semaphore.NewWeighted(o.concurrency)

	meter := otel.Meter("github.com/Mayank-Dandane/honeypot-api/internal/worker/turn")
	o.turns, _ = meter.Int64Counter("honeypot.turns.processed",
		metric.WithDescription("Turns whose analysis was merged into a session"))
	o.fallbacks, _ = meter.Int64Counter("honeypot.turns.fallback_replies",
		metric.WithDescription("Replies served from the fallback catalog"))
	o.confirmed, _ = meter.Int64Counter("honeypot.sessions.confirmed",
		metric.WithDescription("Sessions confirmed as scams"))
	o.analysis, _ = meter.Float64Histogram("honeypot.turns.analysis_duration",
		metric.WithDescription("Background analysis time per turn"),
		metric.WithUnit("ms"))
	return o
}

// Policy returns the active report thresholds.
func (o *Orchestrator) Policy() ReportPolicy {
	return o.policy
}

// HandleTurn returns the persona reply for req and schedules the turn's analysis in the
// background. It never fails: malformed requests, generator failures and panics all
// degrade to a fallback reply.
func (o *Orchestrator) HandleTurn(ctx context.Context, req *models.TurnRequest) (reply string) {
	turn := 0
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered panic in turn handling")
			reply = o.replies.Generic(turn)
		}
	}()

	if req == nil || !req.Valid() {
		log.Warn().Msg("Malformed turn request, replying with generic line")
		o.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "malformed")))
		return o.replies.Generic(0)
	}

	id := strings.TrimSpace(req.SessionID)
	turn = req.TurnIndex()
	s := o.store.GetOrCreate(id)

	reply = o.reply(ctx, s, req, turn)
	o.schedule(id, *req, turn)
	return reply
}

// reply runs the persona generator against the pre-turn session state.
func (o *Orchestrator) reply(ctx context.Context, s models.Session, req *models.TurnRequest, turn int) string {
	in := engagement.ReplyInput{
		ScamType: s.ScamType,
		Turn:     turn,
		Previous: req.PersonaReplies(),
	}
	if o.persona == nil {
		o.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "no_generator")))
		return o.replies.Fallback(in)
	}

	phase := engagement.PhaseFor(turn)
	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	raw, err := o.persona.Generate(genCtx, sdk.PersonaRequest{
		ScamType: s.ScamType,
		Phase:    phase,
		Message:  req.Message.Text,
		History:  req.ConversationHistory,
		Known:    s.Intelligence,
		Turn:     turn,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("sessionId", s.ID).
			Int("turn", turn).
			Str("phase", string(phase)).
			Msg("Persona generation failed, using fallback reply")
		o.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "generator_error")))
		return o.replies.Fallback(in)
	}
	return o.replies.Polish(raw, in)
}

// schedule queues the turn's analysis without blocking the caller.
func (o *Orchestrator) schedule(id string, req models.TurnRequest, turn int) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ctx := context.Background()
		if err := o.sem.Acquire(ctx, 1); err != nil {
			log.Error().Err(err).Str("sessionId", id).Msg("Analysis slot unavailable, turn dropped")
			return
		}
		defer o.sem.Release(1)
		o.Analyze(ctx, id, req, turn)
	}()
}

// Analyze classifies and extracts one turn, merges the outcome into the session and fires
// the report when the policy allows. It runs synchronously; HandleTurn calls it in the background.
func (o *Orchestrator) Analyze(ctx context.Context, id string, req models.TurnRequest, turn int) {
	start := time.Now()
	logger := log.With().Str("sessionId", id).Int("turn", turn).Logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered panic in turn analysis")
		}
	}()

	texts := req.ScammerTexts()
	var (
		classification *models.Classification
		found          models.Intelligence
	)

	// both collaborators handle their own failures so one never cancels the other
	var g errgroup.Group
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()
		c, err := o.classifier.Classify(cctx, sdk.ClassifyInput{
			Message: req.Message.Text,
			Prior:   priorWindow(texts, o.priorWindow),
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Classification failed, confirmation unchanged this turn")
			return nil
		}
		classification = &c
		return nil
	})
	g.Go(func() error {
		ectx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()
		intel, err := o.extractor.Extract(ectx, texts)
		if err != nil {
			logger.Warn().Err(err).Msg("Extraction failed, no intelligence merged this turn")
			return nil
		}
		found = intel
		return nil
	})
	_ = g.Wait()

	res := o.store.Update(id, session.Update{
		Classification: classification,
		Intelligence:   found,
	})
	s := res.Session
	attrs := metric.WithAttributes(attribute.String("scam_type", string(s.ScamType)))
	o.turns.Add(ctx, 1, attrs)

	if res.Confirmed {
		o.confirmed.Add(ctx, 1, attrs)
		logger.Info().
			Str("scamType", string(s.ScamType)).
			Float64("confidence", s.ScamTypeConfidence).
			Int("totalTurns", s.TotalTurns).
			Msg("Scam confirmed")
		o.publish(EventScamConfirmed, TurnEvent{
			SessionID:     id,
			ScamType:      s.ScamType,
			State:         s.State(),
			TotalTurns:    s.TotalTurns,
			ScamConfirmed: true,
			Classified:    true,
		})
	}

	event := TurnEvent{
		SessionID:     id,
		ScamType:      s.ScamType,
		State:         s.State(),
		TotalTurns:    s.TotalTurns,
		NewIntel:      res.Added,
		ScamConfirmed: s.ScamConfirmed,
		Classified:    classification != nil,
		DurationMs:    time.Since(start).Milliseconds(),
	}
	if classification != nil {
		event.Signals = classification.Signals
	}
	if res.Added > 0 {
		event.Discovered = &res.Discovered
	}
	o.publish(EventTurnProcessed, event)

	logger.Debug().
		Int("totalTurns", s.TotalTurns).
		Int("added", res.Added).
		Int("intelligence", s.Intelligence.Count()).
		Bool("confirmed", s.ScamConfirmed).
		Msg("Turn analyzed")

	o.maybeReport(ctx, id)
	o.analysis.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
}

// maybeReport dispatches the report if this caller wins the claim.
func (o *Orchestrator) maybeReport(ctx context.Context, id string) {
	if o.reporter == nil {
		return
	}
	s, ok := o.store.ClaimReport(id, o.policy.Ready)
	if !ok {
		return
	}
	log.Info().
		Str("sessionId", id).
		Int("totalTurns", s.TotalTurns).
		Bool("confirmed", s.ScamConfirmed).
		Int("intelligence", s.Intelligence.Count()).
		Msg("Report claimed")

	res := o.reporter.Send(ctx, s)
	if res.Delivered {
		o.store.MarkReported(id)
	}
	if o.archive != nil {
		if err := o.archive.Archive(ctx, res); err != nil {
			log.Error().Err(err).Str("sessionId", id).Str("reportId", res.ReportID).Msg("Failed to archive report")
		}
	}

	event := ReportEvent{
		SessionID:  id,
		ReportID:   res.ReportID,
		Attempts:   res.Attempts,
		StatusCode: res.StatusCode,
		Delivered:  res.Delivered,
	}
	if res.Err != nil {
		event.Error = res.Err.Error()
	}
	o.publish(EventReportDispatched, event)
}

func (o *Orchestrator) publish(eventType string, data any) {
	if o.events != nil {
		o.events.Publish(eventType, data)
	}
}

// Wait blocks until all scheduled analysis has finished or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for background analysis: %w", ctx.Err())
	}
}

// priorWindow returns up to n scammer texts preceding the current message.
func priorWindow(texts []string, n int) []string {
	if len(texts) <= 1 || n <= 0 {
		return nil
	}
	prior := texts[:len(texts)-1]
	if len(prior) > n {
		prior = prior[len(prior)-n:]
	}
	return prior
}

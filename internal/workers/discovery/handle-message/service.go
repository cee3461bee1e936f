// internal/workers/discovery/handle-message/service.go
package handlemessage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/memory"
	"product-discovery/internal/common/metrics"
	"product-discovery/internal/common/observability"
	"product-discovery/internal/models"
	extractintent "product-discovery/internal/workers/discovery/extract-intent"
	formatresponse "product-discovery/internal/workers/discovery/format-response"
	normalizeintent "product-discovery/internal/workers/discovery/normalize-intent"
	parsequery "product-discovery/internal/workers/discovery/parse-query"
	querycatalog "product-discovery/internal/workers/discovery/query-catalog"
	"product-discovery/pkg/policy"
)

const (
	minSuggestions = 4
	maxSuggestions = 6
)

type ServiceDependencies struct {
	Policy *policy.Policy
	// Completer is the remote extraction capability. Nil disables it and
	// every message goes through the deterministic parser.
	Completer     extractintent.Completer
	Store         querycatalog.Store
	Memory        memory.Store
	Observability *observability.Observability
	Logger        logger.Logger
}

// Service runs the whole discovery pipeline for one message:
// memory, extraction or parsing, normalization, catalog query, formatting.
type Service struct {
	config     *Config
	policy     *policy.Policy
	logger     logger.Logger
	obs        *observability.Observability
	memory     memory.Store
	extractor  *extractintent.Extractor
	parser     *parsequery.Parser
	normalizer *normalizeintent.Normalizer
	engine     *querycatalog.Engine
	formatter  *formatresponse.Formatter

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid handle-message configuration: %w", err)
	}

	p := deps.Policy
	if p == nil {
		p = policy.Default()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	mem := deps.Memory
	if mem == nil {
		mem = memory.NewInMemory()
	}
	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	log = log.With(map[string]interface{}{"taskType": TaskType})

	return &Service{
		config:     config,
		policy:     p,
		logger:     log,
		obs:        obs,
		memory:     mem,
		extractor:  extractintent.NewExtractor(config.Extract, deps.Completer, &extractLoggerAdapter{log}),
		parser:     parsequery.NewParser(p),
		normalizer: normalizeintent.NewNormalizer(p, &normalizeLoggerAdapter{log}),
		engine:     querycatalog.NewEngine(deps.Store, config.MaxResults, config.RelaxOnEmpty, &catalogLoggerAdapter{log}),
		formatter:  formatresponse.NewFormatter(config.CurrencySymbol),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// HandleMessage answers one utterance. It never returns an empty reply:
// extraction failures fall back to the parser, catalog failures produce an
// apology, and a panic in any stage is recovered into the same apology.
func (s *Service) HandleMessage(ctx context.Context, utt models.Utterance) (reply models.Reply) {
	start := time.Now()
	source := models.SourceFallback
	outcome := OutcomeRecovered
	intent := models.Intent{Kind: models.IntentNoResult, Keywords: []string{}}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("message pipeline panicked", map[string]interface{}{
				"userId": utt.UserID,
				"panic":  fmt.Sprint(r),
			})
			reply = s.formatter.StoreUnavailable(intent)
			outcome = OutcomeRecovered
		}
		if strings.TrimSpace(reply.Reply) == "" {
			reply = s.formatter.Help(intent)
		}
		metrics.MessagesHandled.WithLabelValues(string(intent.Kind), string(outcome)).Inc()
		metrics.MessageDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	ctx, span := s.obs.StartSpan(ctx, "discovery.handle_message",
		attribute.Bool("anonymous", utt.UserID == ""),
		attribute.Int("length", len(utt.Text)),
	)
	defer observability.EndSpan(span, nil)

	log := s.logger.With(map[string]interface{}{"userId": utt.UserID})
	if utt.Location != nil {
		log.Debug("client location received", map[string]interface{}{
			"latitude":  utt.Location.Latitude,
			"longitude": utt.Location.Longitude,
		})
	}

	state := s.loadState(ctx, utt.UserID, log)

	raw := s.understand(ctx, utt.Text, state)
	source = raw.Source

	_ = s.stage(ctx, "normalize", func(context.Context) error {
		intent = s.normalizer.Normalize(raw, state, utt.Text)
		return nil
	})

	var result models.QueryResult
	err := s.stage(ctx, "query", func(ctx context.Context) error {
		qctx, qcancel := context.WithTimeout(ctx, s.config.QueryTimeout)
		defer qcancel()
		var qerr error
		result, qerr = s.engine.Query(qctx, intent)
		return qerr
	})
	if err != nil {
		log.Error("catalog query failed", map[string]interface{}{
			"kind":  intent.Kind,
			"error": err.Error(),
		})
		outcome = OutcomeStoreUnavailable
		return s.formatter.StoreUnavailable(intent)
	}

	_ = s.stage(ctx, "format", func(context.Context) error {
		reply = s.formatter.Format(intent, result, utt.Text)
		return nil
	})
	outcome = outcomeOf(intent, result)

	s.saveState(ctx, utt.UserID, intent, result, log)

	log.Info("message handled", map[string]interface{}{
		"kind":      intent.Kind,
		"source":    source,
		"matches":   len(result.Matches),
		"truncated": result.Truncated,
		"outcome":   outcome,
	})
	return reply
}

// understand prefers the remote extractor and falls back to the parser on
// any extraction failure. Empty messages skip both.
func (s *Service) understand(ctx context.Context, text string, state models.ConversationState) models.Intent {
	if strings.TrimSpace(text) == "" {
		return models.Intent{Kind: models.IntentNoResult, Keywords: []string{}, Source: models.SourceFallback}
	}

	var intent models.Intent
	err := s.stage(ctx, "extract", func(ctx context.Context) error {
		var err error
		intent, err = s.extractor.Extract(ctx, text, state)
		return err
	})
	if err == nil {
		return intent
	}
	if !errors.Is(err, apperrors.ErrExtractionFailed) {
		s.logger.Warn("unexpected extraction error", map[string]interface{}{"error": err.Error()})
	}

	_ = s.stage(ctx, "parse", func(context.Context) error {
		intent = s.parser.Parse(text)
		return nil
	})
	return intent
}

func (s *Service) loadState(ctx context.Context, userID string, log logger.Logger) models.ConversationState {
	if userID == "" {
		return models.ConversationState{}
	}
	state, err := s.memory.Get(ctx, userID)
	if err != nil {
		log.Warn("conversation memory read failed", map[string]interface{}{"error": err.Error()})
		return models.ConversationState{}
	}
	return state
}

func (s *Service) saveState(ctx context.Context, userID string, intent models.Intent, result models.QueryResult, log logger.Logger) {
	if userID == "" {
		return
	}
	if err := s.memory.Update(ctx, userID, intent, result); err != nil {
		log.Warn("conversation memory write failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := s.obs.StartSpan(ctx, "discovery."+name)
	start := time.Now()
	err := fn(ctx)

	status := "ok"
	if err != nil {
		status = "error"
	}
	s.obs.RecordStage(ctx, name, status, time.Since(start))
	observability.EndSpan(span, err)
	return err
}

func outcomeOf(intent models.Intent, result models.QueryResult) Outcome {
	switch {
	case intent.Kind == models.IntentNoResult:
		return OutcomeHelp
	case !result.Empty():
		return OutcomeMatched
	case result.Relaxed != nil && len(result.Relaxed.Matches) > 0:
		return OutcomeRelaxed
	default:
		return OutcomeEmpty
	}
}

// Suggest returns 4 to 6 example queries. The remote extractor is asked
// first when enabled; the policy's list, shuffled, is used otherwise.
func (s *Service) Suggest(ctx context.Context) []string {
	var out []string
	err := s.stage(ctx, "suggest", func(ctx context.Context) error {
		var err error
		out, err = s.extractor.Suggest(ctx)
		return err
	})
	if err == nil && len(out) >= minSuggestions {
		if len(out) > maxSuggestions {
			out = out[:maxSuggestions]
		}
		return out
	}
	return s.staticSuggestions()
}

func (s *Service) staticSuggestions() []string {
	list := append([]string(nil), s.policy.Suggestions...)

	s.mu.Lock()
	s.rng.Shuffle(len(list), func(i, j int) { list[i], list[j] = list[j], list[i] })
	s.mu.Unlock()

	if len(list) > maxSuggestions {
		list = list[:maxSuggestions]
	}
	return list
}

// Engine exposes the catalog engine, mainly for the CLI.
func (s *Service) Engine() *querycatalog.Engine {
	return s.engine
}

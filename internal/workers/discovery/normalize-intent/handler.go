// internal/workers/discovery/normalize-intent/handler.go
package normalizeintent

import (
	"context"
	"math"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"product-discovery/internal/common/camunda"
	apperrors "product-discovery/internal/common/errors"
	"product-discovery/internal/common/metrics"
	"product-discovery/internal/models"
	"product-discovery/pkg/policy"
)

const TaskType = "normalize-intent"

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Normalizer turns the output of either extractor into one canonical
// intent. It is the only stage that reads conversation memory.
type Normalizer struct {
	policy *policy.Policy
	logger Logger
}

func NewNormalizer(p *policy.Policy, log Logger) *Normalizer {
	return &Normalizer{policy: p, logger: log}
}

// Normalize applies defaults, clamps invalid fields and resolves
// continuation phrases against state. It never fails.
func (n *Normalizer) Normalize(raw models.Intent, state models.ConversationState, text string) models.Intent {
	out := n.NormalizeWithTrace(raw, state, text)
	return out.Intent
}

// NormalizeWithTrace is Normalize plus a record of what was changed.
func (n *Normalizer) NormalizeWithTrace(raw models.Intent, state models.ConversationState, text string) Output {
	in := raw.Clone()
	var clamped []string

	if !in.Kind.Valid() {
		if in.Kind != "" {
			clamped = append(clamped, n.clamp("kind", in.Kind))
		}
		in.Kind = models.IntentProductSearch
	}

	if invalidPrice(in.MaxPrice) {
		clamped = append(clamped, n.clamp("maxPrice", *in.MaxPrice))
		in.MaxPrice = nil
	}
	if invalidPrice(in.MinPrice) {
		clamped = append(clamped, n.clamp("minPrice", *in.MinPrice))
		in.MinPrice = nil
	}
	if in.Offset < 0 {
		clamped = append(clamped, n.clamp("offset", in.Offset))
		in.Offset = 0
	}

	in.Keywords = n.cleanKeywords(in.Keywords)
	if in.Category != "" {
		if canonical, ok := n.policy.MatchCategory(in.Category); ok {
			in.Category = canonical
		} else {
			// Unknown categories still carry search meaning as a keyword.
			in.Keywords = appendUnique(in.Keywords, strings.ToLower(strings.TrimSpace(in.Category)))
			in.Category = ""
		}
	}
	in.LocationHint = strings.ToLower(strings.TrimSpace(in.LocationHint))

	swapInverted(&in)

	cont := ContinuationNone
	if state.LastIntent != nil && len(in.Keywords) == 0 && in.Category == "" {
		cont = n.detectContinuation(text)
		if cont != ContinuationNone {
			in = n.applyContinuation(in, state, cont)
			metrics.ContinuationsApplied.WithLabelValues(string(cont)).Inc()
		}
	}

	if in.Kind == models.IntentPriceFilter && !in.HasPriceBound() {
		in.Kind = models.IntentProductSearch
	}
	if in.Kind != models.IntentBusinessFinder && in.Kind != models.IntentNoResult &&
		len(in.Keywords) == 0 && in.Category == "" && !in.HasPriceBound() {
		in.Kind = models.IntentNoResult
	}

	return Output{Intent: in, Continuation: cont, Clamped: clamped}
}

func (n *Normalizer) clamp(field string, value interface{}) string {
	metrics.NormalizerClamps.WithLabelValues(field).Inc()
	n.logger.Warn("intent field clamped", map[string]interface{}{
		"field": field,
		"error": apperrors.NewInvalidIntentFieldError(field, value).Error(),
	})
	return field
}

func invalidPrice(p *float64) bool {
	return p != nil && (*p < 0 || math.IsNaN(*p) || math.IsInf(*p, 0))
}

func swapInverted(in *models.Intent) {
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		in.MinPrice, in.MaxPrice = in.MaxPrice, in.MinPrice
	}
}

func (n *Normalizer) cleanKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if canonical, ok := n.policy.MatchProduct(k); ok {
			k = canonical
		}
		out = appendUnique(out, k)
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// detectContinuation matches the policy phrase lists. A phrase directly
// followed by "than" is a price comparison, not a follow-up.
func (n *Normalizer) detectContinuation(text string) Continuation {
	tokens := policy.Tokenize(text)
	if matchFollowUp(tokens, n.policy.Continuation.Cheaper) {
		return ContinuationCheaper
	}
	if matchFollowUp(tokens, n.policy.Continuation.More) {
		return ContinuationMore
	}
	return ContinuationNone
}

func matchFollowUp(tokens []string, phrases []string) bool {
	for _, phrase := range phrases {
		size := policy.PhraseLen(phrase)
		for i := range tokens {
			if !policy.PhraseAt(tokens, i, phrase) {
				continue
			}
			if next := i + size; next < len(tokens) && tokens[next] == "than" {
				continue
			}
			return true
		}
	}
	return false
}

func (n *Normalizer) applyContinuation(in models.Intent, state models.ConversationState, cont Continuation) models.Intent {
	prev := state.LastIntent.Clone()

	out := in
	out.Keywords = prev.Keywords
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	out.Category = prev.Category
	if out.LocationHint == "" {
		out.LocationHint = prev.LocationHint
	}
	if in.Kind != models.IntentBusinessFinder {
		out.Kind = prev.Kind
	}
	explicitBounds := in.HasPriceBound()
	if !explicitBounds {
		out.MinPrice, out.MaxPrice = prev.MinPrice, prev.MaxPrice
	}

	switch cont {
	case ContinuationCheaper:
		out.Offset = 0
		if explicitBounds {
			break
		}
		base, ok := 0.0, false
		if prev.MaxPrice != nil {
			base, ok = *prev.MaxPrice, true
		} else if state.LastResult != nil {
			base, ok = state.LastResult.MinObservedPrice()
		}
		if !ok || base <= 0 {
			break
		}
		// Rounded down to the paisa so the new ceiling is strictly lower.
		ceiling := math.Floor(base*n.policy.Continuation.CheaperFactor*100+1e-9) / 100
		if ceiling >= base {
			ceiling = math.Max(0, base-0.01)
		}
		out.MaxPrice = models.Price(ceiling)
		if out.MinPrice != nil && *out.MinPrice > ceiling {
			out.MinPrice = nil
		}
		if out.Kind != models.IntentBusinessFinder {
			out.Kind = models.IntentPriceFilter
		}
	case ContinuationMore:
		out.Offset = prev.Offset
		if state.LastResult != nil && state.LastResult.Truncated {
			out.Offset = prev.Offset + len(state.LastResult.Matches)
		}
	}

	n.logger.Info("continuation applied", map[string]interface{}{
		"continuation": string(cont),
		"kind":         out.Kind,
		"offset":       out.Offset,
	})
	return out
}

type Handler struct {
	config     *Config
	normalizer *Normalizer
	logger     Logger
}

func NewHandler(config *Config, p *policy.Policy, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:     config,
		normalizer: NewNormalizer(p, l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		camunda.ThrowError(client, job, "PARSE_ERROR", err.Error(), h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		camunda.ThrowError(client, job, "NORMALIZATION_FAILED", err.Error(), h.logger)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	out := h.normalizer.NormalizeWithTrace(input.Intent, input.State, input.Message)

	h.logger.Info("intent normalized", map[string]interface{}{
		"kind":         out.Intent.Kind,
		"continuation": string(out.Continuation),
		"clamped":      out.Clamped,
	})

	return &out, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// internal/workers/discovery/parse-query/handler.go
package parsequery

import (
	"context"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"product-discovery/internal/common/camunda"
	"product-discovery/internal/models"
	"product-discovery/pkg/policy"
)

const TaskType = "parse-query"

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Parser is the deterministic, offline fallback extractor. It is safe for
// concurrent use; rules keep no state between calls.
type Parser struct {
	rules []Rule
}

func NewParser(p *policy.Policy) *Parser {
	return &Parser{rules: DefaultRules(p)}
}

// NewParserWithRules builds a parser over a custom rule list.
func NewParserWithRules(rules []Rule) *Parser {
	return &Parser{rules: rules}
}

// Parse never fails. With no signal at all it returns an empty
// product_search intent.
func (p *Parser) Parse(text string) models.Intent {
	s := newState(strings.TrimSpace(text))
	for _, r := range p.rules {
		r.Apply(s)
	}
	if s.Intent.Kind == "" {
		s.Intent.Kind = models.IntentProductSearch
	}
	return s.Intent
}

// Trace runs the rules and also reports which of them changed the state.
func (p *Parser) Trace(text string) (models.Intent, []string) {
	s := newState(strings.TrimSpace(text))
	var fired []string
	for _, r := range p.rules {
		before := snapshot(s)
		r.Apply(s)
		if snapshot(s) != before {
			fired = append(fired, r.Name())
		}
	}
	if s.Intent.Kind == "" {
		s.Intent.Kind = models.IntentProductSearch
	}
	return s.Intent, fired
}

func snapshot(s *State) string {
	var b strings.Builder
	for _, c := range s.Consumed {
		if c {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteString("|" + string(s.Intent.Kind) + "|" + s.Intent.Category + "|" + s.Intent.LocationHint)
	b.WriteString("|" + strings.Join(s.Intent.Keywords, ","))
	if s.BusinessPhrase {
		b.WriteString("|b")
	}
	if s.WhereToBuy {
		b.WriteString("|w")
	}
	return b.String()
}

type Handler struct {
	config *Config
	parser *Parser
	logger Logger
}

func NewHandler(config *Config, parser *Parser, log Logger) *Handler {
	return &Handler{
		config: config,
		parser: parser,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
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
		camunda.ThrowError(client, job, "PARSE_ERROR", err.Error(), h.logger)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	intent, fired := h.parser.Trace(input.Message)

	h.logger.Info("query parsed", map[string]interface{}{
		"kind":     intent.Kind,
		"keywords": intent.Keywords,
		"category": intent.Category,
		"rules":    fired,
	})

	return &Output{Intent: intent}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

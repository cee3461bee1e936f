// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"product-discovery/internal/bootstrap"
	"product-discovery/internal/common/config"
	"product-discovery/internal/common/logger"
	transport "product-discovery/internal/transport/chi"
	handlemessage "product-discovery/internal/workers/discovery/handle-message"
	"product-discovery/pkg/policy"
)

// scripted model answers, keyed by the user's message
var scripted = map[string]string{
	"I need some sabzi for tonight": `{"kind":"category_search","keywords":[],"category":"Vegetables","max_price":null,"min_price":null,"location_hint":null,"confidence":0.92}`,
	"any kirana that has toor?":     "```json\n{\"kind\":\"business_finder\",\"keywords\":[\"dal\"],\"category\":null,\"max_price\":null,\"min_price\":null,\"location_hint\":null,\"confidence\":0.8}\n```",
	"basmati please":                `{"kind":"product_search","keywords":["rice"],"confidence":0.05}`,
}

const suggestionsDoc = `{"questions":["Show me basmati rice","Onions under Rs.40","Who sells toor dal?","Vegetable shops in Gachibowli","Cheapest cooking oil"]}`

type stack struct {
	server   *httptest.Server
	llmCalls *int32
	redis    *miniredis.Miniredis
	res      *bootstrap.Resources
}

// fakeLLM answers like an OpenAI-compatible endpoint. Messages without a
// scripted answer get a 503 so the pipeline has to fall back.
func fakeLLM(t *testing.T, calls *int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) < 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var content string
		if strings.Contains(req.Messages[0].Content, "example questions") {
			content = suggestionsDoc
		} else {
			user := strings.SplitN(req.Messages[1].Content, "\n\n", 2)[0]
			doc, ok := scripted[user]
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
				return
			}
			content = doc
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-e2e",
			"object":  "chat.completion",
			"created": 1,
			"model":   "llama-3.1-8b-instant",
			"choices": []interface{}{
				map[string]interface{}{
					"index":         0,
					"message":       map[string]interface{}{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupStack wires the full server the way cmd/discovery-server does:
// sqlite catalog, redis cache and memory, remote extractor, chi router.
func setupStack(t *testing.T, withLLM bool) *stack {
	t.Helper()

	mr := miniredis.RunT(t)
	var calls int32

	cfg := &config.Config{
		App:    config.AppConfig{Name: "product-discovery"},
		Server: config.ServerConfig{RequestTimeout: 5000},
		Catalog: config.CatalogConfig{
			Driver:       config.DriverSQLite,
			MaxResults:   10,
			QueryTimeout: 2000,
			CacheEnabled: true,
			CacheTTL:     60000,
			SeedOnStart:  true,
		},
		Database: config.DatabaseConfig{
			SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "catalog.db")},
			Redis:  config.RedisConfig{Address: mr.Addr()},
		},
		Memory: config.MemoryConfig{
			Backend:   config.MemoryBackendRedis,
			TTL:       600000,
			KeyPrefix: "e2e:conversation:",
		},
	}
	if withLLM {
		llm := fakeLLM(t, &calls)
		cfg.LLM = config.LLMConfig{
			Enabled:            true,
			BaseURL:            llm.URL,
			APIKey:             "e2e-key",
			Model:              "llama-3.1-8b-instant",
			Timeout:            1000,
			Temperature:        0.1,
			MaxTokens:          300,
			MinConfidence:      0.3,
			SuggestionsEnabled: true,
		}
	}

	log := logger.NewTestLogger(t)
	res, err := bootstrap.Open(context.Background(), cfg, zaptest.NewLogger(t), log)
	require.NoError(t, err)
	t.Cleanup(res.Close)

	p := policy.Default()
	service, err := handlemessage.NewService(handlemessage.ServiceDependencies{
		Policy:    p,
		Completer: res.Completer,
		Store:     res.Store,
		Memory:    res.Memory,
		Logger:    log,
	}, handlemessage.ConfigFromApp(cfg, p))
	require.NoError(t, err)

	checks := map[string]transport.Check{}
	for name, check := range res.Checks {
		checks[name] = check
	}
	srv := httptest.NewServer(transport.NewRouter(
		transport.NewServer(service, checks, cfg.App.Name, log),
		config.GetDuration(cfg.Server.RequestTimeout),
	))
	t.Cleanup(srv.Close)

	return &stack{server: srv, llmCalls: &calls, redis: mr, res: res}
}

type chatReply struct {
	Reply  string `json:"reply"`
	UserID string `json:"userId"`
	Intent struct {
		Kind     string   `json:"kind"`
		Keywords []string `json:"keywords"`
		Category string   `json:"category"`
		MaxPrice *float64 `json:"maxPrice"`
		Offset   int      `json:"offset"`
		Source   string   `json:"source"`
	} `json:"intent"`
	Products []struct {
		Name     string `json:"name"`
		Business struct {
			Name string `json:"name"`
		} `json:"business"`
	} `json:"products"`
	Businesses []struct {
		Name string `json:"name"`
	} `json:"businesses"`
	Truncated bool `json:"truncated"`
}

func (s *stack) chat(t *testing.T, message, userID string) chatReply {
	t.Helper()

	body, err := json.Marshal(map[string]interface{}{"message": message, "user_id": userID})
	require.NoError(t, err)
	resp, err := http.Post(s.server.URL+"/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out chatReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Reply, "reply to %q must not be empty", message)
	return out
}

func names(r chatReply) []string {
	out := make([]string, 0, len(r.Products))
	for _, p := range r.Products {
		out = append(out, p.Name)
	}
	return out
}

// ==========================
// End-to-end flows
// ==========================

func TestE2E_ExtractorAnswers(t *testing.T) {
	s := setupStack(t, true)

	veg := s.chat(t, "I need some sabzi for tonight", "asha")
	assert.Equal(t, "category_search", veg.Intent.Kind)
	assert.Equal(t, "llm", veg.Intent.Source)
	assert.ElementsMatch(t, []string{"Fresh Tomatoes", "Fresh Onions"}, names(veg))

	sellers := s.chat(t, "any kirana that has toor?", "asha")
	assert.Equal(t, "business_finder", sellers.Intent.Kind)
	require.Len(t, sellers.Businesses, 1)
	assert.Equal(t, "Quality Grocers", sellers.Businesses[0].Name)
	assert.Contains(t, sellers.Reply, "Quality Grocers - Kondapur, Hyderabad")
}

func TestE2E_FallsBackWhenExtractorFails(t *testing.T) {
	s := setupStack(t, true)

	// 503 from the model
	under := s.chat(t, "Products under Rs.50", "ravi")
	assert.Equal(t, "fallback", under.Intent.Source)
	assert.Equal(t, []string{"Fresh Onions", "Fresh Tomatoes", "Whole Wheat Atta"}, names(under))
	assert.True(t, strings.HasPrefix(under.Reply, "Found 3 products under ₹50:"), under.Reply)

	// answer below the confidence floor
	rice := s.chat(t, "basmati please", "ravi")
	assert.Equal(t, "fallback", rice.Intent.Source)
	assert.Equal(t, []string{"Basmati Rice"}, names(rice))

	assert.GreaterOrEqual(t, atomic.LoadInt32(s.llmCalls), int32(2))
}

func TestE2E_WithoutExtractor(t *testing.T) {
	s := setupStack(t, false)

	tests := []struct {
		message   string
		wantKind  string
		wantNames []string
		wantReply string
	}{
		{message: "Show me rice", wantKind: "product_search", wantNames: []string{"Basmati Rice"}},
		{message: "who sells dal", wantKind: "business_finder", wantNames: []string{"Toor Dal"}},
		{message: "unicorn horns", wantKind: "product_search", wantReply: "Sorry, I couldn't find unicorn horns."},
		{message: "hello there", wantKind: "no_result"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			out := s.chat(t, tt.message, "")
			assert.Equal(t, tt.wantKind, out.Intent.Kind)
			if tt.wantNames != nil {
				assert.Equal(t, tt.wantNames, names(out))
			}
			if tt.wantReply != "" {
				assert.Contains(t, out.Reply, tt.wantReply)
			}
		})
	}
}

func TestE2E_ConversationMemory(t *testing.T) {
	s := setupStack(t, false)

	first := s.chat(t, "rice under 150", "meena")
	require.Equal(t, []string{"Basmati Rice"}, names(first))

	cheaper := s.chat(t, "cheaper", "meena")
	require.NotNil(t, cheaper.Intent.MaxPrice)
	assert.Equal(t, 75.0, *cheaper.Intent.MaxPrice)
	assert.Contains(t, cheaper.Reply, "No matches under ₹75, but here's what's available:")

	// state lives in redis under the configured prefix
	assert.True(t, s.redis.Exists("e2e:conversation:meena"))

	// another user starts fresh
	other := s.chat(t, "cheaper", "kiran")
	assert.Nil(t, other.Intent.MaxPrice)
}

func TestE2E_CatalogOutageApologises(t *testing.T) {
	s := setupStack(t, false)
	s.chat(t, "Show me rice", "sunil")

	// catalog, cache and memory connections all gone
	s.res.Close()

	out := s.chat(t, "Show me onions", "sunil")
	assert.Empty(t, out.Products)
	assert.Contains(t, strings.ToLower(out.Reply), "sorry")
}

func TestE2E_Suggest(t *testing.T) {
	tests := []struct {
		name    string
		withLLM bool
		want    []string
	}{
		{name: "from extractor", withLLM: true, want: []string{"Show me basmati rice", "Onions under Rs.40", "Who sells toor dal?", "Vegetable shops in Gachibowli", "Cheapest cooking oil"}},
		{name: "static list", withLLM: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupStack(t, tt.withLLM)

			resp, err := http.Get(s.server.URL + "/suggest")
			require.NoError(t, err)
			defer resp.Body.Close()

			var out struct {
				Questions []string `json:"questions"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			if tt.want != nil {
				assert.Equal(t, tt.want, out.Questions)
				return
			}
			assert.ElementsMatch(t, policy.Default().Suggestions, out.Questions)
		})
	}
}

func TestE2E_ReadinessAndMetrics(t *testing.T) {
	s := setupStack(t, false)
	anon := s.chat(t, "Show me rice", "")
	assert.Empty(t, anon.UserID)
	for _, key := range s.redis.Keys() {
		assert.False(t, strings.HasPrefix(key, "e2e:conversation:"), "anonymous turn stored %s", key)
	}

	resp, err := http.Get(s.server.URL + "/ready")
	require.NoError(t, err)
	var ready struct {
		Status string                 `json:"status"`
		Checks map[string]interface{} `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", ready.Status)
	assert.Contains(t, ready.Checks, "catalog")
	assert.Contains(t, ready.Checks, "redis")

	resp, err = http.Get(s.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "discovery_messages_total")
	assert.Contains(t, string(body), "discovery_catalog_cache_lookups_total")

	s.res.Close()
	resp, err = http.Get(s.server.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

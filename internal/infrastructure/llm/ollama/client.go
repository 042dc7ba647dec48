package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/docsift/docsift/internal/core/domain"
	"github.com/docsift/docsift/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
	limiter    *rate.Limiter
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
	// RequestsPerSecond throttles outbound calls client-side; zero
	// disables throttling.
	RequestsPerSecond float64
	Burst             int
}

func New(baseURL, genModel, embedModel string) *Client {
	return NewWithOptions(baseURL, genModel, embedModel, Options{})
}

func NewWithOptions(baseURL, genModel, embedModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		burst := options.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
		limiter:    limiter,
	}
}

// Health checks that the model server answers at all. It bypasses the
// rate limiter and executor so a probe never burns generation budget.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama health request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("ollama health status: %s", resp.Status)
	}
	return nil
}

// call runs one API request through the rate limiter and, when
// configured, the resilience executor. Retryable failures come back
// wrapped as domain.ErrTemporary.
func (c *Client) call(ctx context.Context, path string, payload, out any, operation string) error {
	fn := func(callCtx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(callCtx); err != nil {
				return fmt.Errorf("ollama %s rate limit: %w", operation, err)
			}
		}
		return c.postJSON(callCtx, path, payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, fn, classifyCallError)
	} else {
		err = fn(ctx)
	}
	return wrapTemporary(operation, err)
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.call(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	reqBody := map[string]any{
		"model":  g.client.genModel,
		"prompt": prompt,
		"stream": false,
	}
	modelOpts := map[string]any{
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		modelOpts["num_predict"] = opts.MaxTokens
	}
	reqBody["options"] = modelOpts

	var response struct {
		Response string `json:"response"`
	}
	if err := g.client.call(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

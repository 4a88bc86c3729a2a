package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider implements question generation, answer evaluation and
// communication analysis against the OpenAI chat completions API. All
// network and parse failures are reported as ErrTransient so the caller
// can retry or fall back.
type OpenAIProvider struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	client      *http.Client
	logger      *slog.Logger
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIProvider creates a provider backed by the chat completions API.
// baseURL may be empty, in which case the official endpoint is used.
func NewOpenAIProvider(apiKey, model, baseURL string, maxTokens int, temperature float64, timeout time.Duration, logger *slog.Logger) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIProvider{
		apiKey:      apiKey,
		model:       model,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// chat sends one system+user exchange and returns the raw completion text
func (p *OpenAIProvider) chat(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrTransient, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: api returned status %d: %s", ErrTransient, resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %v", ErrTransient, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: api error: %s", ErrTransient, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrTransient)
	}

	return parsed.Choices[0].Message.Content, nil
}

// Generate asks the model for the next interview question
func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (Question, error) {
	system := "You are a senior technical interviewer. Respond with a single JSON object " +
		`{"question": "...", "topic": "..."} and nothing else. The topic is a short ` +
		"lowercase label for the technical area the question probes."

	var sb strings.Builder
	fmt.Fprintf(&sb, "Role: %s. Experience level: %s. Tech stack: %s.\n",
		req.Config.Role, req.Config.ExperienceLevel, strings.Join(req.Config.TechStack, ", "))
	fmt.Fprintf(&sb, "Interview stage: %s. Difficulty: %d of 5.\n", req.Stage, req.Difficulty)
	if len(req.Memory.WeakTopics) > 0 {
		fmt.Fprintf(&sb, "Weak areas so far: %s. Prefer probing these.\n", strings.Join(req.Memory.WeakTopics, ", "))
	}
	if len(req.Memory.StrongTopics) > 0 {
		fmt.Fprintf(&sb, "Strong areas so far: %s.\n", strings.Join(req.Memory.StrongTopics, ", "))
	}
	sb.WriteString(stageInstruction(req.Stage))
	sb.WriteString("\nDo not repeat questions already asked. Ask exactly one question.")

	content, err := p.chat(ctx, system, sb.String())
	if err != nil {
		return Question{}, err
	}

	var out struct {
		Question string `json:"question"`
		Topic    string `json:"topic"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &out); err != nil {
		return Question{}, fmt.Errorf("%w: malformed generation output: %v", ErrTransient, err)
	}
	if strings.TrimSpace(out.Question) == "" {
		return Question{}, fmt.Errorf("%w: empty question in generation output", ErrTransient)
	}
	if out.Topic == "" {
		out.Topic = "general"
	}

	return Question{Text: strings.TrimSpace(out.Question), Topic: strings.ToLower(out.Topic)}, nil
}

func stageInstruction(stage models.Stage) string {
	switch stage {
	case models.StageIntro:
		return "This is the introduction: ask about background and motivation, keep it light."
	case models.StageWarmup:
		return "This is a warmup: an easy, confidence-building technical question."
	case models.StageCoreQuestions:
		return "This is the core round: a substantive technical question at the stated difficulty."
	case models.StagePressureRound:
		return "This is the pressure round: a stressful scenario with incomplete information, probe how the candidate handles pressure."
	case models.StageCommunicationTest:
		return "This tests communication: ask the candidate to explain a technical concept clearly."
	case models.StageClosing:
		return "This is the closing: invite reflection or questions from the candidate."
	default:
		return ""
	}
}

// Evaluate asks the model to score an answer across the five dimensions
func (p *OpenAIProvider) Evaluate(ctx context.Context, req EvaluateRequest) (models.Evaluation, error) {
	system := "You are a strict technical interviewer scoring an answer. Respond with a single JSON object " +
		`{"technical": 0-100, "reasoning": 0-100, "communication": 0-100, "structure": 0-100, ` +
		`"confidence": 0-100, "feedback": "one or two sentences"} and nothing else.`

	var sb strings.Builder
	fmt.Fprintf(&sb, "Role: %s (%s). Strictness: %d of 5. Difficulty: %d of 5. Stage: %s.\n",
		req.Config.Role, req.Config.ExperienceLevel, req.Config.Strictness, req.Difficulty, req.Stage)
	fmt.Fprintf(&sb, "Question: %s\n", req.Question)
	fmt.Fprintf(&sb, "Answer: %s\n", req.Answer)

	content, err := p.chat(ctx, system, sb.String())
	if err != nil {
		return models.Evaluation{}, err
	}

	var eval models.Evaluation
	if err := json.Unmarshal([]byte(extractJSON(content)), &eval); err != nil {
		return models.Evaluation{}, fmt.Errorf("%w: malformed evaluation output: %v", ErrTransient, err)
	}
	eval.Clamp()

	return eval, nil
}

// Analyze asks the model for communication flags on an answer
func (p *OpenAIProvider) Analyze(ctx context.Context, answer string, strictness int) ([]string, error) {
	system := "You review interview answers for communication problems. Respond with a single JSON object " +
		`{"flags": ["..."]} and nothing else. Allowed flags: "rambling", "lack_of_structure", ` +
		`"hedging", "too_short". Return an empty list when the answer communicates well.`

	user := fmt.Sprintf("Strictness: %d of 5. Higher strictness means flag smaller problems.\nAnswer: %s", strictness, answer)

	content, err := p.chat(ctx, system, user)
	if err != nil {
		return nil, err
	}

	var out struct {
		Flags []string `json:"flags"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &out); err != nil {
		return nil, fmt.Errorf("%w: malformed analysis output: %v", ErrTransient, err)
	}

	return out.Flags, nil
}

// extractJSON strips markdown fences and surrounding prose from a model
// response, leaving the outermost JSON object.
func extractJSON(content string) string {
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

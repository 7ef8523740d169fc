package aiworker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/echo-journal/echo-backend/pkg/config"
	"github.com/echo-journal/echo-backend/pkg/enums"
)

const summarySystemPrompt = `Tu es un assistant de journal intime. On te donne la transcription d'une note vocale.
Réponds uniquement avec un objet JSON de la forme
{"summary": "...", "keypoints": ["...", "..."]}.
Le résumé fait deux ou trois phrases, dans la langue de la transcription.
Les keypoints sont trois à cinq points saillants, courts.`

type summaryPayload struct {
	Summary   string   `json:"summary"`
	Keypoints []string `json:"keypoints"`
}

// OpenAIPipeline runs transcription through Whisper and summarization
// through a chat model.
type OpenAIPipeline struct {
	client   *openai.Client
	sttModel string
	llmModel string
}

// NewOpenAIPipeline builds a pipeline from AI configuration.
func NewOpenAIPipeline(cfg config.AIConfig) (*OpenAIPipeline, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai api key required")
	}
	return &OpenAIPipeline{
		client:   openai.NewClient(cfg.OpenAIAPIKey),
		sttModel: cfg.STTModel,
		llmModel: cfg.LLMModel,
	}, nil
}

// Run transcribes the audio and, when asked, summarizes the transcript.
// Summarize always needs a transcript, so transcription runs for both tasks.
func (p *OpenAIPipeline) Run(ctx context.Context, input PipelineInput) (*PipelineOutput, error) {
	out := &PipelineOutput{}

	transcription, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.sttModel,
		FilePath: input.FileName,
		Reader:   input.Audio,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}

	out.STTModel = p.sttModel
	out.TranscriptText = strings.TrimSpace(transcription.Text)
	if transcription.Duration > 0 {
		duration := transcription.Duration
		out.DurationSec = &duration
	}
	if raw, err := json.Marshal(transcription); err == nil {
		out.TranscriptJSON = string(raw)
	}

	if hasTask(input.Tasks, enums.AITaskSummarize) {
		summary, err := p.summarize(ctx, out.TranscriptText)
		if err != nil {
			return nil, err
		}
		out.LLMModel = p.llmModel
		out.SummaryText = summary.Summary
		out.Keypoints = summary.Keypoints
	}

	return out, nil
}

func (p *OpenAIPipeline) summarize(ctx context.Context, transcript string) (*summaryPayload, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.llmModel,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("summarization: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("summarization: empty completion")
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("summarization: decode payload: %w", err)
	}
	return &payload, nil
}

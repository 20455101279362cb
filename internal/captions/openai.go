package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type captionResponse struct {
	Caption string `json:"caption" jsonschema_description:"A short social media caption with emoji and hashtags"`
}

func generateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var captionResponseSchema = generateSchema[captionResponse]()

// OpenAISuggester asks a chat model for a caption with a strict JSON schema response.
type OpenAISuggester struct {
	client openai.Client
	model  string
}

// NewOpenAISuggester creates a suggester for apiKey. An empty model selects gpt-4o-mini.
func NewOpenAISuggester(apiKey, model string, opts ...option.RequestOption) *OpenAISuggester {
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAISuggester{client: openai.NewClient(opts...), model: model}
}

// Suggest implements Suggester.
func (s *OpenAISuggester) Suggest(ctx context.Context, hint string) (string, error) {
	prompt := fmt.Sprintf(`Write one caption for a short vertical video clip.

Clip context: %s

The caption should:
- Hook the viewer in the first few words
- Include one or two emoji
- End with three to five relevant hashtags
- Be under 200 characters

Respond in JSON format with this structure:
{
  "caption": "your caption here"
}`, describeContext(hint))

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(s.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "clip_caption",
					Description: openai.String("A social caption for a short video clip"),
					Schema:      captionResponseSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	raw := completion.Choices[0].Message.Content
	if raw == "" {
		return "", fmt.Errorf("openai returned empty content, finish reason %s", completion.Choices[0].FinishReason)
	}
	var resp captionResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("parse caption response: %w", err)
	}
	caption := strings.TrimSpace(resp.Caption)
	if caption == "" {
		return "", ErrEmptySuggestion
	}
	return caption, nil
}

func describeContext(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(none given, write a general engaging caption)"
	}
	return s
}

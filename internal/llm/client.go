package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are Snowbasin, a friendly assistant for Utah snow and transit information.
You help people plan trips on UTA buses, TRAX and FrontRunner, and answer questions
about snow conditions around the Wasatch. Keep answers concise and practical.`

const titlePrompt = `Generate a short title (at most six words) summarizing the user's message.
Respond with the title only, no quotes or punctuation around it.`

// TurnMessage is one ordered role/content entry of the generation context.
type TurnMessage struct {
	Role    string
	Content string
}

// Client wraps an OpenAI-compatible chat completion API, exposing the
// token-streaming call used for chat turns and the non-streaming call used
// for title generation.
type Client struct {
	client *goopenai.Client
	model  string
}

// NewClient creates a Client for the given API key and model.
// baseURL overrides the provider endpoint when non-empty.
func NewClient(apiKey, baseURL, model string) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// StreamChat opens a streaming chat completion over the given context
// messages. The grounding string, when non-empty, is injected into the system
// prompt as real-time situational data. Chunks are yielded in arrival order;
// a yielded error terminates the sequence.
func (c *Client) StreamChat(ctx context.Context, messages []TurnMessage, grounding string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		system := systemPrompt
		if grounding != "" {
			system += "\n\nReal-time transit data:\n" + grounding
		}

		msgs := make([]goopenai.ChatCompletionMessage, 0, len(messages)+1)
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: system,
		})
		for _, m := range messages {
			msgs = append(msgs, goopenai.ChatCompletionMessage{
				Role:    m.Role,
				Content: m.Content,
			})
		}

		req := goopenai.ChatCompletionRequest{
			Model:    c.model,
			Messages: msgs,
			Stream:   true,
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := c.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield("", fmt.Errorf("error sending request: %w", err))
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				if errors.Is(err, context.Canceled) {
					yield("", err)
					return
				}
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}

			if len(response.Choices) == 0 {
				continue
			}

			delta := response.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			if !yield(delta, nil) {
				return
			}
		}
	}
}

// GenerateTitle asks the model for a short chat title derived from the first
// user message of a new conversation.
func (c *Client) GenerateTitle(ctx context.Context, message string) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: titlePrompt,
			},
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: message,
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices found")
	}

	title := strings.TrimSpace(resp.Choices[0].Message.Content)
	title = strings.Trim(title, `"`)
	return title, nil
}

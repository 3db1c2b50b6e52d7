package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"

	"github.com/mrlokans/library/internal/errcodes"
	"github.com/mrlokans/library/internal/llm"
)

type ChunkData struct {
	TextChunk        string         `json:"text_chunk,omitempty"`
	ToolNameCalled   string         `json:"tool_name_called,omitempty"`
	ToolArgsCalled   map[string]any `json:"tool_args_called,omitempty"`
	ToolResponseData any            `json:"tool_response_data,omitempty"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	IsFinalTextChunk bool           `json:"is_final_text_chunk"`
}

type Chunk struct {
	ConversationID string    `json:"conversation_id"`
	ResponseChunk  ChunkData `json:"response_chunk"`
}

// Stream starts the tool-calling loop for one question and returns the
// conversation id with a channel of chunks. The channel is closed after the
// final chunk, or when ctx is done.
func (s *Service) Stream(ctx context.Context, conversationID, question string) (string, <-chan Chunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, errcodes.BadRequest("Query cannot be empty.")
	}
	if conversationID == "" {
		conversationID = NewConversationID()
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		err := s.runLoop(ctx, conversationID, question, func(data ChunkData) bool {
			select {
			case out <- Chunk{ConversationID: conversationID, ResponseChunk: data}:
				return true
			case <-ctx.Done():
				return false
			}
		})
		s.record("tools", question, "", err)
	}()
	return conversationID, out, nil
}

type emitFunc func(ChunkData) bool

var errTurnLimit = errors.New("tool loop reached the turn limit")

func (s *Service) runLoop(ctx context.Context, conversationID, question string, emit emitFunc) error {
	if !s.configured() {
		emit(ChunkData{ErrorMessage: msgNotConfigured, IsFinalTextChunk: true})
		return llm.ErrNotConfigured
	}

	history := append(s.conversations.Get(conversationID), llm.UserText(question))
	defer func() { s.conversations.Save(conversationID, history) }()

	system := llm.Content{Parts: []llm.Part{{Text: toolSystemInstruction(s.now().UTC())}}}
	log := s.log.Data(logger.Data{"conversation_id": conversationID})

	for turn := 1; turn <= s.opts.MaxTurns; turn++ {
		resp, err := s.llm.Generate(ctx, llm.Request{
			SystemInstruction: &system,
			Contents:          history,
			Tools:             s.tools.Declarations(),
		})
		if err != nil {
			log.Err(err).Warn("assistant model call failed", logger.Data{"turn": turn})
			emit(ChunkData{ErrorMessage: fmt.Sprintf("The assistant is unavailable right now: %v", err), IsFinalTextChunk: true})
			return err
		}

		content := resp.Content()
		history = append(history, content)

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			emit(ChunkData{TextChunk: FilterBorrowingInfo(resp.Text()), IsFinalTextChunk: true})
			return nil
		}
		if text := resp.Text(); text != "" {
			if !emit(ChunkData{TextChunk: FilterBorrowingInfo(text)}) {
				return ctx.Err()
			}
		}

		responses := make([]llm.Part, 0, len(calls))
		for _, call := range calls {
			if !emit(ChunkData{ToolNameCalled: call.Name, ToolArgsCalled: call.Args}) {
				return ctx.Err()
			}

			result, err := s.tools.Call(ctx, call.Name, call.Args)
			if err != nil {
				log.Err(err).Warn("assistant tool failed", logger.Data{"tool": call.Name})
				if !emit(ChunkData{ToolNameCalled: call.Name, ErrorMessage: fmt.Sprintf("Error executing tool %s: %v", call.Name, err)}) {
					return ctx.Err()
				}
				responses = append(responses, functionResponse(call.Name, map[string]any{"error": err.Error()}))
				continue
			}

			if !emit(ChunkData{ToolNameCalled: call.Name, ToolResponseData: result}) {
				return ctx.Err()
			}
			responses = append(responses, functionResponse(call.Name, map[string]any{"result": result}))
		}
		history = append(history, llm.Content{Role: llm.RoleFunction, Parts: responses})
	}

	msg := fmt.Sprintf("I could not finish answering within %d steps. Please try rephrasing your question.", s.opts.MaxTurns)
	emit(ChunkData{ErrorMessage: msg, IsFinalTextChunk: true})
	return errTurnLimit
}

func functionResponse(name string, response map[string]any) llm.Part {
	return llm.Part{FunctionResponse: &llm.FunctionResponse{Name: name, Response: response}}
}

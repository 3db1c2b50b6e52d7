// Package assistant answers free-text questions about the library, either by
// having the model write one read-only SELECT (Ask) or by letting it call a
// fixed set of analytic tools over several turns (Stream).
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/errcodes"
	"github.com/mrlokans/library/internal/llm"
)

const DefaultMaxTurns = 5

type SQLRunner interface {
	Dialect() string
	Query(ctx context.Context, query string) ([]map[string]any, error)
}

type Auditor interface {
	LogAssistant(mode, question, sqlQuery string, err error)
}

type Options struct {
	MaxTurns   int
	ScopeCheck bool
}

func OptionsFromConfig(cfg config.Assistant) Options {
	return Options{MaxTurns: cfg.MaxTurns, ScopeCheck: cfg.ScopeCheck}
}

type Service struct {
	llm           llm.Client
	sql           SQLRunner
	tools         *Toolbox
	conversations *ConversationStore
	audit         Auditor
	opts          Options
	log           logger.Logger
	now           func() time.Time
}

func NewService(client llm.Client, runner SQLRunner, tools *Toolbox, conversations *ConversationStore, opts Options) *Service {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if conversations == nil {
		conversations = NewConversationStore(0, 0)
	}
	return &Service{
		llm:           client,
		sql:           runner,
		tools:         tools,
		conversations: conversations,
		opts:          opts,
		log:           logger.New(),
		now:           time.Now,
	}
}

func (s *Service) WithAudit(a Auditor) *Service {
	s.audit = a
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	if s.tools != nil {
		s.tools.now = now
	}
	return s
}

// configured reports false when the client knows it has no API key.
func (s *Service) configured() bool {
	if s.llm == nil {
		return false
	}
	if c, ok := s.llm.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

func (s *Service) record(mode, question, sqlQuery string, err error) {
	if s.audit != nil {
		s.audit.LogAssistant(mode, question, sqlQuery, err)
	}
}

// Answer is the result of Ask. SQL is kept for logging and auditing.
type Answer struct {
	Response string `json:"response"`
	SQL      string `json:"-"`
}

// Ask runs the text-to-SQL pipeline. Model and query failures are reported
// in Answer.Response; only an empty question is returned as an error.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errcodes.BadRequest("Query cannot be empty.")
	}

	answer, err := s.ask(ctx, question)
	s.record("sql", question, answer.SQL, err)
	if err != nil {
		s.log.Err(err).Warn("assistant question not answered", logger.Data{"question": question})
	}
	return answer, nil
}

func (s *Service) ask(ctx context.Context, question string) (*Answer, error) {
	if !s.configured() {
		return &Answer{Response: msgNotConfigured}, llm.ErrNotConfigured
	}

	if s.opts.ScopeCheck {
		if reason, ok := s.checkScope(ctx, question); !ok {
			return &Answer{Response: sorryMessage(reason)}, nil
		}
	}

	raw, err := llm.GenerateText(ctx, s.llm, sqlPrompt(question, s.sql.Dialect(), s.now().UTC()))
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			return &Answer{Response: msgNotConfigured}, err
		}
		return &Answer{Response: fmt.Sprintf("I encountered an error while generating the SQL query: %v", err)}, err
	}

	query, err := SanitizeSQL(raw, s.sql.Dialect())
	if err != nil {
		var unanswerable *UnanswerableError
		if errors.As(err, &unanswerable) {
			return &Answer{Response: sorryMessage(unanswerable.Reason), SQL: raw}, nil
		}
		return &Answer{Response: msgSelectOnly, SQL: raw}, err
	}

	s.log.Info("executing assistant query", logger.Data{"sql": query.Exec})
	rows, err := s.sql.Query(ctx, query.Exec)
	if err != nil {
		return &Answer{Response: fmt.Sprintf("There was an error executing the generated SQL query: %v", err), SQL: query.Display}, err
	}
	if len(rows) == 0 {
		return &Answer{Response: msgNoData, SQL: query.Display}, nil
	}

	results := formatRows(rows)
	text, err := llm.GenerateText(ctx, s.llm, answerPrompt(question, results))
	if err != nil {
		return &Answer{Response: fallbackAnswer(rows), SQL: query.Display}, err
	}
	return &Answer{Response: FilterBorrowingInfo(text), SQL: query.Display}, nil
}

// checkScope returns false with a reason when the model says the question
// is unanswerable. Model errors let the question through.
func (s *Service) checkScope(ctx context.Context, question string) (string, bool) {
	verdict, err := llm.GenerateText(ctx, s.llm, scopePrompt(question))
	if err != nil {
		s.log.Err(err).Warn("scope check failed, continuing")
		return "", true
	}
	if !strings.HasPrefix(strings.ToUpper(verdict), "UNANSWERABLE") {
		return "", true
	}
	if i := strings.Index(verdict, ":"); i >= 0 {
		if reason := strings.TrimSpace(verdict[i+1:]); reason != "" {
			return reason, false
		}
	}
	return msgOutOfScope, false
}

func formatRows(rows []map[string]any) string {
	b, err := json.Marshal(rows)
	if err != nil {
		return fmt.Sprint(rows)
	}
	return string(b)
}

// fallbackAnswer states a scalar result directly when phrasing fails.
func fallbackAnswer(rows []map[string]any) string {
	if len(rows) == 1 && len(rows[0]) == 1 {
		for _, v := range rows[0] {
			return fmt.Sprintf("The answer is %v.", v)
		}
	}
	return msgPhrasingError
}

package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/seoblog-api/pkg/ai"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// scriptedInvoker answers model calls by purpose; evaluation answers are keyed by
// the quoted candidate title embedded in the prompt.
type scriptedInvoker struct {
	mu        sync.Mutex
	responses map[string][]string
	errs      map[string]error
	byTitle   map[string]string
	calls     []ai.Request
}

func newScriptedInvoker() *scriptedInvoker {
	return &scriptedInvoker{
		responses: map[string][]string{},
		errs:      map[string]error{},
		byTitle:   map[string]string{},
	}
}

func (s *scriptedInvoker) on(purpose string, texts ...string) *scriptedInvoker {
	s.responses[purpose] = append(s.responses[purpose], texts...)
	return s
}

func (s *scriptedInvoker) Invoke(ctx context.Context, req ai.Request) (ai.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)

	if err := ctx.Err(); err != nil {
		return ai.Response{}, err
	}
	if err, ok := s.errs[req.Purpose]; ok {
		return ai.Response{}, err
	}
	for title, text := range s.byTitle {
		if strings.Contains(req.Prompt, "\""+title+"\"\n") {
			return ai.Response{Text: text, Model: "stub"}, nil
		}
	}
	queue := s.responses[req.Purpose]
	if len(queue) == 0 {
		return ai.Response{}, errors.New("no scripted response for " + req.Purpose)
	}
	text := queue[0]
	if len(queue) > 1 {
		s.responses[req.Purpose] = queue[1:]
	}
	return ai.Response{Text: text, Model: "stub"}, nil
}

func (s *scriptedInvoker) callsFor(purpose string) []ai.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ai.Request
	for _, call := range s.calls {
		if call.Purpose == purpose {
			out = append(out, call)
		}
	}
	return out
}

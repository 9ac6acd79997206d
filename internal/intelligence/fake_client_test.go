package intelligence

import (
	"context"
	"strings"

	"github.com/alexanderramin/pathways/internal/llm"
)

// fakeClient returns canned text or an error and records requests.
type fakeClient struct {
	text     string
	err      error
	deltas   []string
	requests []llm.GenerateRequest
}

func (f *fakeClient) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.GenerateResponse{Text: f.text, Model: "fake"}, nil
}

func (f *fakeClient) Stream(_ context.Context, req llm.GenerateRequest, onDelta func(string)) (*llm.GenerateResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	for _, d := range f.deltas {
		if onDelta != nil {
			onDelta(d)
		}
	}
	return &llm.GenerateResponse{Text: strings.Join(f.deltas, ""), Model: "fake"}, nil
}

func (f *fakeClient) Available(context.Context) bool { return f.err == nil }

func (f *fakeClient) last() llm.GenerateRequest { return f.requests[len(f.requests)-1] }

// Package tools decides whether a prompt needs external context and
// fetches it. The decision is made by the model itself in two small
// calls: one to pick a tool, one to derive the search query.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// ChatFunc issues one model call on behalf of the router. The caller
// binds it to whatever model and credential the conversation is using.
type ChatFunc func(ctx context.Context, messages []core.Message) (*core.ChatReply, error)

// LibrarySearcher finds stored document chunks matching a query.
type LibrarySearcher interface {
	SearchLibrary(ctx context.Context, userID, query string, limit int) ([]core.LibraryChunk, error)
}

// LibraryEmptyNotice is returned inside the library block when the
// search matches nothing, so the model knows the library was consulted.
const LibraryEmptyNotice = "No matching information found in your library."

const libraryResultLimit = 5

const classifyPrompt = `You are a routing assistant. Given the user's request, decide which tool would help answer it.
Reply with exactly one word:
WEB - the request needs current information from the internet
LIBRARY - the request refers to the user's own uploaded documents
NONE - the request can be answered from general knowledge

User request:
%s`

const queryPrompt = `Extract a short search query (a few keywords, no explanation) that would find the information needed to answer this request:
%s`

// Router performs tool selection and context retrieval. It holds one
// searcher per provider name; requests may name a provider, otherwise
// the configured default is used.
type Router struct {
	searchers       map[string]Searcher
	defaultProvider string
	library         LibrarySearcher
}

func NewRouter(searchers map[string]Searcher, defaultProvider string, library LibrarySearcher) *Router {
	return &Router{searchers: searchers, defaultProvider: defaultProvider, library: library}
}

// Augment returns a context block to append to the prompt, or "" when
// no tool is needed. Model-call failures propagate; search failures are
// reported inline so the conversation can continue without the tool.
func (r *Router) Augment(ctx context.Context, chat ChatFunc, userID, prompt, searchProvider string) (string, error) {
	decision, err := r.classify(ctx, chat, prompt)
	if err != nil {
		return "", err
	}
	if decision == core.ToolNone {
		return "", nil
	}

	query, err := r.deriveQuery(ctx, chat, prompt)
	if err != nil {
		return "", err
	}

	slog.Debug("Routing prompt to tool", "tool", decision, "query", query)

	switch decision {
	case core.ToolWeb:
		return r.webBlock(ctx, query, searchProvider), nil
	default:
		return r.libraryBlock(ctx, userID, query), nil
	}
}

// classify asks the model to pick a tool. WEB is checked before
// LIBRARY because chatty models sometimes mention both; anything
// unrecognized means no tool.
func (r *Router) classify(ctx context.Context, chat ChatFunc, prompt string) (core.ToolDecision, error) {
	reply, err := chat(ctx, []core.Message{
		{Role: core.RoleUser, Content: fmt.Sprintf(classifyPrompt, prompt)},
	})
	if err != nil {
		return core.ToolNone, fmt.Errorf("tool classification failed: %w", err)
	}

	answer := strings.ToUpper(reply.Content)
	switch {
	case strings.Contains(answer, "WEB"):
		return core.ToolWeb, nil
	case strings.Contains(answer, "LIBRARY"):
		return core.ToolLibrary, nil
	default:
		return core.ToolNone, nil
	}
}

func (r *Router) deriveQuery(ctx context.Context, chat ChatFunc, prompt string) (string, error) {
	reply, err := chat(ctx, []core.Message{
		{Role: core.RoleUser, Content: fmt.Sprintf(queryPrompt, prompt)},
	})
	if err != nil {
		return "", fmt.Errorf("query derivation failed: %w", err)
	}

	query := strings.TrimSpace(reply.Content)
	if query == "" {
		query = prompt
	}
	return query, nil
}

func (r *Router) webBlock(ctx context.Context, query, provider string) string {
	if provider == "" {
		provider = r.defaultProvider
	}
	searcher := r.searchers[provider]
	if searcher == nil {
		return "WEB SEARCH RESULTS:\n\n[search unavailable: no search provider configured]"
	}

	results, err := searcher.Search(ctx, query)
	if err != nil {
		slog.Warn("Web search failed", "query", query, "error", err)
		return fmt.Sprintf("WEB SEARCH RESULTS:\n\n[search failed: %v]", err)
	}

	var b strings.Builder
	b.WriteString("WEB SEARCH RESULTS:\n")
	for i, res := range results {
		fmt.Fprintf(&b, "\n[%d] %s\nLink: %s\nSnippet: %s\n", i+1, res.Title, res.Link, res.Snippet)
	}
	if len(results) == 0 {
		b.WriteString("\n[no results found]\n")
	}
	return b.String()
}

func (r *Router) libraryBlock(ctx context.Context, userID, query string) string {
	chunks, err := r.library.SearchLibrary(ctx, userID, query, libraryResultLimit)
	if err != nil {
		slog.Warn("Library search failed", "query", query, "error", err)
		return fmt.Sprintf("LIBRARY CONTEXT:\n\n[library search failed: %v]", err)
	}

	if len(chunks) == 0 {
		return "LIBRARY CONTEXT:\n\n" + LibraryEmptyNotice
	}

	sections := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		sections = append(sections, fmt.Sprintf("Source: %s\nContent: %s", chunk.FileName, chunk.Content))
	}
	return "LIBRARY CONTEXT:\n\n" + strings.Join(sections, "\n\n---\n\n")
}

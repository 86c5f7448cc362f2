// Package orchestrator runs chat requests end to end: credential
// resolution, tool routing, the model call (or the three-stage council
// debate), and best-effort persistence.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ascendlabs/ascendancy/internal/core"
	"github.com/ascendlabs/ascendancy/internal/council"
	"github.com/ascendlabs/ascendancy/internal/credentials"
	"github.com/ascendlabs/ascendancy/internal/gateway"
	"github.com/ascendlabs/ascendancy/internal/persona"
	"github.com/ascendlabs/ascendancy/internal/storage"
	"github.com/ascendlabs/ascendancy/internal/tools"
)

// Resolver produces the upstream credential for a model reference.
type Resolver interface {
	Resolve(ctx context.Context, ref core.ModelRef, secrets []core.Secret) (*credentials.Credential, error)
}

// Request is one chat invocation.
type Request struct {
	UserID string
	Guest  bool

	Prompt string
	// Model selects solo mode; empty means council debate.
	Model string
	// Messages is the prior conversation, excluding the new prompt.
	Messages []core.Message
	// Role customizes the solo system prompt ("a pirate" etc).
	Role string
	// SearchProvider overrides the configured web-search backend.
	SearchProvider string
}

// SoloResult is the outcome of a single-model chat.
type SoloResult struct {
	Content   string
	Reasoning string
	Model     string

	// Diagnostics for debug responses. Never carries secret values.
	Provider         core.Provider
	CredentialSource string
}

// DebateOutcome is the outcome of a council debate.
type DebateOutcome struct {
	Content string
	Debate  *core.DebateResult
	Models  core.CouncilBindings
}

// Engine wires the pieces together.
type Engine struct {
	gateway  gateway.Client
	resolver Resolver
	router   *tools.Router
	council  *council.Loader
	store    storage.Store

	antiHallucination bool
}

func NewEngine(gw gateway.Client, resolver Resolver, router *tools.Router, loader *council.Loader, store storage.Store, antiHallucination bool) *Engine {
	return &Engine{
		gateway:           gw,
		resolver:          resolver,
		router:            router,
		council:           loader,
		store:             store,
		antiHallucination: antiHallucination,
	}
}

// Solo runs a single-model chat with tool routing.
func (e *Engine) Solo(ctx context.Context, req *Request) (*SoloResult, error) {
	secrets := e.loadSecrets(ctx, req)
	ref := core.ParseModelRef(req.Model)

	cred, err := e.resolver.Resolve(ctx, ref, secrets)
	if err != nil {
		return nil, err
	}

	messages := withSystemPrompt(req.Messages, persona.Solo(req.Role))
	messages = append(messages, core.Message{Role: core.RoleUser, Content: req.Prompt})

	block, err := e.routerAugment(ctx, cred, ref, req)
	if err != nil {
		return nil, err
	}
	if block != "" {
		last := len(messages) - 1
		messages[last].Content += "\n\n" + block
	}

	reply, err := e.gateway.Chat(ctx, cred, ref, messages)
	if err != nil {
		return nil, err
	}

	e.persistChat(ctx, req, reply.Content, ref.Raw)

	return &SoloResult{
		Content:          reply.Content,
		Reasoning:        reply.Reasoning,
		Model:            ref.Raw,
		Provider:         cred.Provider,
		CredentialSource: cred.Source,
	}, nil
}

// Debate runs the three-stage council: the moderator opens (with tool
// routing), the skeptic critiques the moderator's literal text, and the
// visionary synthesizes both into the final answer. Credentials are
// resolved per stage because each role may bind a different provider.
func (e *Engine) Debate(ctx context.Context, req *Request) (*DebateOutcome, error) {
	secrets := e.loadSecrets(ctx, req)
	bindings := e.council.Load(ctx)

	moderatorText, err := e.runModerator(ctx, req, secrets, bindings.Moderator)
	if err != nil {
		return nil, fmt.Errorf("moderator stage: %w", err)
	}

	skepticText, err := e.runStage(ctx, secrets, bindings.Skeptic, persona.Skeptic(e.antiHallucination).SystemPrompt,
		fmt.Sprintf("Topic: %s\n\nThe moderator's opening position:\n\n%s", req.Prompt, moderatorText))
	if err != nil {
		return nil, fmt.Errorf("skeptic stage: %w", err)
	}

	visionaryText, err := e.runStage(ctx, secrets, bindings.Visionary, persona.Visionary().SystemPrompt,
		fmt.Sprintf("Topic: %s\n\nThe moderator's opening position:\n\n%s\n\nThe skeptic's critique:\n\n%s",
			req.Prompt, moderatorText, skepticText))
	if err != nil {
		return nil, fmt.Errorf("visionary stage: %w", err)
	}

	result := &core.DebateResult{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Topic:     req.Prompt,
		Moderator: core.RoleOutput{Model: bindings.Moderator, Content: moderatorText},
		Skeptic:   core.RoleOutput{Model: bindings.Skeptic, Content: skepticText},
		Visionary: core.RoleOutput{Model: bindings.Visionary, Content: visionaryText},
		CreatedAt: time.Now().UTC(),
	}

	e.persistDebate(ctx, req, result)

	return &DebateOutcome{Content: visionaryText, Debate: result, Models: bindings}, nil
}

func (e *Engine) runModerator(ctx context.Context, req *Request, secrets []core.Secret, model string) (string, error) {
	ref := core.ParseModelRef(model)
	cred, err := e.resolver.Resolve(ctx, ref, secrets)
	if err != nil {
		return "", err
	}

	prompt := req.Prompt
	block, err := e.routerAugment(ctx, cred, ref, req)
	if err != nil {
		return "", err
	}
	if block != "" {
		prompt += "\n\n" + block
	}

	reply, err := e.gateway.Chat(ctx, cred, ref, []core.Message{
		{Role: core.RoleSystem, Content: persona.Moderator().SystemPrompt},
		{Role: core.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

func (e *Engine) runStage(ctx context.Context, secrets []core.Secret, model, systemPrompt, userPrompt string) (string, error) {
	ref := core.ParseModelRef(model)
	cred, err := e.resolver.Resolve(ctx, ref, secrets)
	if err != nil {
		return "", err
	}

	reply, err := e.gateway.Chat(ctx, cred, ref, []core.Message{
		{Role: core.RoleSystem, Content: systemPrompt},
		{Role: core.RoleUser, Content: userPrompt},
	})
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

func (e *Engine) routerAugment(ctx context.Context, cred *credentials.Credential, ref core.ModelRef, req *Request) (string, error) {
	if e.router == nil {
		return "", nil
	}

	chat := func(ctx context.Context, messages []core.Message) (*core.ChatReply, error) {
		return e.gateway.Chat(ctx, cred, ref, messages)
	}

	libraryUser := req.UserID
	if req.Guest {
		libraryUser = ""
	}
	return e.router.Augment(ctx, chat, libraryUser, req.Prompt, req.SearchProvider)
}

// loadSecrets fetches the caller's stored secrets. Guests own none, and
// a storage failure degrades to the server-tier credentials only.
func (e *Engine) loadSecrets(ctx context.Context, req *Request) []core.Secret {
	if req.Guest || e.store == nil {
		return nil
	}
	secrets, err := e.store.GetSecrets(ctx, req.UserID)
	if err != nil {
		slog.Warn("Failed to load user secrets", "user_id", req.UserID, "error", err)
		return nil
	}
	return secrets
}

// persistChat records the exchange. Failures are logged, never
// surfaced; guests are never persisted.
func (e *Engine) persistChat(ctx context.Context, req *Request, replyContent, model string) {
	if req.Guest || e.store == nil {
		return
	}

	now := time.Now().UTC()
	entries := []*core.ChatMessage{
		{ID: uuid.New().String(), UserID: req.UserID, Role: core.RoleUser, Content: req.Prompt, CreatedAt: now},
		{ID: uuid.New().String(), UserID: req.UserID, Role: core.RoleAssistant, Content: replyContent, Model: model, CreatedAt: now},
	}
	for _, entry := range entries {
		if err := e.store.AddChatMessage(ctx, entry); err != nil {
			slog.Warn("Failed to persist chat message", "user_id", req.UserID, "error", err)
			return
		}
	}
}

func (e *Engine) persistDebate(ctx context.Context, req *Request, result *core.DebateResult) {
	if req.Guest || e.store == nil {
		return
	}

	if err := e.store.AddDebateResult(ctx, result); err != nil {
		slog.Warn("Failed to persist debate", "user_id", req.UserID, "error", err)
	}

	e.persistChat(ctx, req, result.Visionary.Content, result.Visionary.Model)
}

// withSystemPrompt guarantees the conversation opens with a system
// message, without overriding one the client already supplied.
func withSystemPrompt(history []core.Message, systemPrompt string) []core.Message {
	messages := make([]core.Message, 0, len(history)+2)
	if len(history) == 0 || history[0].Role != core.RoleSystem {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: systemPrompt})
	}
	return append(messages, history...)
}

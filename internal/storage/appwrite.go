package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// AppwriteStore implements Store against the hosted Appwrite document
// database. All durable state lives server-side; this client only issues
// listDocuments/createDocument style calls.
type AppwriteStore struct {
	endpoint string
	project  string
	database string
	apiKey   string
	client   *http.Client
}

// Collection ids in the hosted database.
const (
	collSecrets       = "user_secrets"
	collCouncilConfig = "council_config"
	collChatHistory   = "chat_history"
	collDebateHistory = "debate_history"
	collLibraryChunks = "library_chunks"
)

// NewAppwriteStore creates a store backed by the Appwrite REST API.
func NewAppwriteStore(endpoint, project, database, apiKey string) *AppwriteStore {
	return &AppwriteStore{
		endpoint: endpoint,
		project:  project,
		database: database,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Initialize verifies the connection. Collection provisioning is managed
// out of band.
func (s *AppwriteStore) Initialize() error {
	if s.project == "" {
		return fmt.Errorf("appwrite project id is required")
	}
	if s.apiKey == "" {
		return fmt.Errorf("appwrite api key is required")
	}
	return nil
}

// Close is a no-op for the HTTP-backed store.
func (s *AppwriteStore) Close() error {
	return nil
}

// query builds one Appwrite query string in its JSON form.
func query(method, attribute string, values ...any) string {
	q := map[string]any{"method": method, "values": values}
	if attribute != "" {
		q["attribute"] = attribute
	}
	data, _ := json.Marshal(q)
	return string(data)
}

type appwriteDocument struct {
	ID        string    `json:"$id"`
	CreatedAt time.Time `json:"$createdAt"`

	UserID  string `json:"userId,omitempty"`
	Name    string `json:"name,omitempty"`
	Value   string `json:"value,omitempty"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Model   string `json:"model,omitempty"`
	Topic   string `json:"topic,omitempty"`

	ConfigID       string `json:"configId,omitempty"`
	ModeratorModel string `json:"moderatorModel,omitempty"`
	SkepticModel   string `json:"skepticModel,omitempty"`
	VisionaryModel string `json:"visionaryModel,omitempty"`

	DebateID         string `json:"debateId,omitempty"`
	ModeratorContent string `json:"moderatorContent,omitempty"`
	SkepticContent   string `json:"skepticContent,omitempty"`
	VisionaryContent string `json:"visionaryContent,omitempty"`

	FileName string `json:"fileName,omitempty"`
}

type documentList struct {
	Total     int                `json:"total"`
	Documents []appwriteDocument `json:"documents"`
}

func (s *AppwriteStore) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Appwrite-Project", s.project)
	req.Header.Set("X-Appwrite-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("appwrite request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read appwrite response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("appwrite returned %d: %s", resp.StatusCode, truncate(string(data), 256))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode appwrite response: %w", err)
		}
	}
	return nil
}

func (s *AppwriteStore) listDocuments(ctx context.Context, collection string, queries []string) (*documentList, error) {
	values := url.Values{}
	for _, q := range queries {
		values.Add("queries[]", q)
	}
	path := fmt.Sprintf("/databases/%s/collections/%s/documents", s.database, collection)
	if len(values) > 0 {
		path += "?" + values.Encode()
	}

	var list documentList
	if err := s.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *AppwriteStore) createDocument(ctx context.Context, collection string, data map[string]any) error {
	path := fmt.Sprintf("/databases/%s/collections/%s/documents", s.database, collection)
	body := map[string]any{
		"documentId": "unique()",
		"data":       data,
	}
	return s.do(ctx, http.MethodPost, path, body, nil)
}

func (s *AppwriteStore) updateDocument(ctx context.Context, collection, id string, data map[string]any) error {
	path := fmt.Sprintf("/databases/%s/collections/%s/documents/%s", s.database, collection, id)
	return s.do(ctx, http.MethodPatch, path, map[string]any{"data": data}, nil)
}

func (s *AppwriteStore) deleteDocument(ctx context.Context, collection, id string) error {
	path := fmt.Sprintf("/databases/%s/collections/%s/documents/%s", s.database, collection, id)
	return s.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetSecrets returns all secrets stored for a user.
func (s *AppwriteStore) GetSecrets(ctx context.Context, userID string) ([]core.Secret, error) {
	list, err := s.listDocuments(ctx, collSecrets, []string{
		query("equal", "userId", userID),
		query("limit", "", 100),
	})
	if err != nil {
		return nil, err
	}

	secrets := make([]core.Secret, 0, len(list.Documents))
	for _, doc := range list.Documents {
		secrets = append(secrets, core.Secret{
			UserID: doc.UserID,
			Name:   doc.Name,
			Value:  doc.Value,
		})
	}
	return secrets, nil
}

// PutSecret creates or updates a secret document.
func (s *AppwriteStore) PutSecret(ctx context.Context, secret *core.Secret) error {
	list, err := s.listDocuments(ctx, collSecrets, []string{
		query("equal", "userId", secret.UserID),
		query("equal", "name", secret.Name),
		query("limit", "", 1),
	})
	if err != nil {
		return err
	}

	data := map[string]any{
		"userId": secret.UserID,
		"name":   secret.Name,
		"value":  secret.Value,
	}
	if len(list.Documents) > 0 {
		return s.updateDocument(ctx, collSecrets, list.Documents[0].ID, data)
	}
	return s.createDocument(ctx, collSecrets, data)
}

// DeleteSecret removes a secret document if it exists.
func (s *AppwriteStore) DeleteSecret(ctx context.Context, userID, name string) error {
	list, err := s.listDocuments(ctx, collSecrets, []string{
		query("equal", "userId", userID),
		query("equal", "name", name),
		query("limit", "", 1),
	})
	if err != nil {
		return err
	}
	if len(list.Documents) == 0 {
		return nil
	}
	return s.deleteDocument(ctx, collSecrets, list.Documents[0].ID)
}

// GetCouncilConfig retrieves the council bindings for a config id.
func (s *AppwriteStore) GetCouncilConfig(ctx context.Context, configID string) (*core.CouncilBindings, error) {
	list, err := s.listDocuments(ctx, collCouncilConfig, []string{
		query("equal", "configId", configID),
		query("limit", "", 1),
	})
	if err != nil {
		return nil, err
	}
	if len(list.Documents) == 0 {
		return nil, nil
	}

	doc := list.Documents[0]
	return &core.CouncilBindings{
		Moderator: doc.ModeratorModel,
		Skeptic:   doc.SkepticModel,
		Visionary: doc.VisionaryModel,
	}, nil
}

// PutCouncilConfig replaces the council bindings wholesale.
func (s *AppwriteStore) PutCouncilConfig(ctx context.Context, configID string, bindings *core.CouncilBindings) error {
	list, err := s.listDocuments(ctx, collCouncilConfig, []string{
		query("equal", "configId", configID),
		query("limit", "", 1),
	})
	if err != nil {
		return err
	}

	data := map[string]any{
		"configId":       configID,
		"moderatorModel": bindings.Moderator,
		"skepticModel":   bindings.Skeptic,
		"visionaryModel": bindings.Visionary,
	}
	if len(list.Documents) > 0 {
		return s.updateDocument(ctx, collCouncilConfig, list.Documents[0].ID, data)
	}
	return s.createDocument(ctx, collCouncilConfig, data)
}

// AddChatMessage appends a chat-history document.
func (s *AppwriteStore) AddChatMessage(ctx context.Context, msg *core.ChatMessage) error {
	return s.createDocument(ctx, collChatHistory, map[string]any{
		"userId":  msg.UserID,
		"role":    msg.Role,
		"content": msg.Content,
		"model":   msg.Model,
	})
}

// ListChatMessages returns a user's chat history, newest first.
func (s *AppwriteStore) ListChatMessages(ctx context.Context, userID string, limit, offset int) ([]*core.ChatMessage, error) {
	list, err := s.listDocuments(ctx, collChatHistory, []string{
		query("equal", "userId", userID),
		query("orderDesc", "$createdAt"),
		query("limit", "", limit),
		query("offset", "", offset),
	})
	if err != nil {
		return nil, err
	}

	messages := make([]*core.ChatMessage, 0, len(list.Documents))
	for _, doc := range list.Documents {
		messages = append(messages, &core.ChatMessage{
			ID:        doc.ID,
			UserID:    doc.UserID,
			Role:      doc.Role,
			Content:   doc.Content,
			Model:     doc.Model,
			CreatedAt: doc.CreatedAt,
		})
	}
	return messages, nil
}

// AddDebateResult persists a completed debate.
func (s *AppwriteStore) AddDebateResult(ctx context.Context, result *core.DebateResult) error {
	return s.createDocument(ctx, collDebateHistory, map[string]any{
		"debateId":         result.ID,
		"userId":           result.UserID,
		"topic":            result.Topic,
		"moderatorModel":   result.Moderator.Model,
		"moderatorContent": result.Moderator.Content,
		"skepticModel":     result.Skeptic.Model,
		"skepticContent":   result.Skeptic.Content,
		"visionaryModel":   result.Visionary.Model,
		"visionaryContent": result.Visionary.Content,
	})
}

// GetDebateResult retrieves a debate by its debate id.
func (s *AppwriteStore) GetDebateResult(ctx context.Context, id string) (*core.DebateResult, error) {
	list, err := s.listDocuments(ctx, collDebateHistory, []string{
		query("equal", "debateId", id),
		query("limit", "", 1),
	})
	if err != nil {
		return nil, err
	}
	if len(list.Documents) == 0 {
		return nil, nil
	}

	doc := list.Documents[0]
	return &core.DebateResult{
		ID:        doc.DebateID,
		UserID:    doc.UserID,
		Topic:     doc.Topic,
		Moderator: core.RoleOutput{Model: doc.ModeratorModel, Content: doc.ModeratorContent},
		Skeptic:   core.RoleOutput{Model: doc.SkepticModel, Content: doc.SkepticContent},
		Visionary: core.RoleOutput{Model: doc.VisionaryModel, Content: doc.VisionaryContent},
		CreatedAt: doc.CreatedAt,
	}, nil
}

// ListDebateResults returns a user's debate summaries, newest first.
func (s *AppwriteStore) ListDebateResults(ctx context.Context, userID string, limit, offset int) ([]*core.DebateSummary, error) {
	list, err := s.listDocuments(ctx, collDebateHistory, []string{
		query("equal", "userId", userID),
		query("orderDesc", "$createdAt"),
		query("limit", "", limit),
		query("offset", "", offset),
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]*core.DebateSummary, 0, len(list.Documents))
	for _, doc := range list.Documents {
		summaries = append(summaries, &core.DebateSummary{
			ID:        doc.DebateID,
			Topic:     doc.Topic,
			CreatedAt: doc.CreatedAt,
		})
	}
	return summaries, nil
}

// SearchLibrary runs the hosted full-text search over library chunks.
func (s *AppwriteStore) SearchLibrary(ctx context.Context, userID, text string, limit int) ([]core.LibraryChunk, error) {
	queries := []string{
		query("search", "content", text),
		query("limit", "", limit),
	}
	// Guests search unscoped.
	if userID != "" {
		queries = append(queries, query("equal", "userId", userID))
	}

	list, err := s.listDocuments(ctx, collLibraryChunks, queries)
	if err != nil {
		return nil, err
	}

	chunks := make([]core.LibraryChunk, 0, len(list.Documents))
	for _, doc := range list.Documents {
		chunks = append(chunks, core.LibraryChunk{
			FileName: doc.FileName,
			Content:  doc.Content,
		})
	}
	return chunks, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jasperwreed/pixel-chat/internal/models"
)

const (
	PreviewLength = 100
	TitleLength   = 50
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// header is a conversation row without its messages.
type header struct {
	conv     models.Conversation
	revision int64
}

func (s *SQLiteStore) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = models.DefaultTitle
	}

	now := s.now()
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  []models.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.writeDB.ExecContext(ctx, queryInsertConversation,
		conv.ID, conv.Title, conv.Preview, conv.ServerSessionID,
		now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return nil, txError("create conversation", err)
	}

	return conv, nil
}

// GetConversation returns the conversation with its messages in insertion
// order, or nil when no conversation has that id.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	h, err := loadHeader(ctx, s.readDB, id)
	if err != nil {
		return nil, txError("get conversation", err)
	}
	if h == nil {
		return nil, nil
	}

	messages, err := loadMessages(ctx, s.readDB, id)
	if err != nil {
		return nil, txError("load messages", err)
	}
	h.conv.Messages = messages

	return &h.conv, nil
}

// FindConversationBySession returns the most recently updated conversation
// linked to the given server session, or nil.
func (s *SQLiteStore) FindConversationBySession(ctx context.Context, sessionID string) (*models.Conversation, error) {
	if sessionID == "" {
		return nil, nil
	}

	var id string
	err := s.readDB.QueryRowContext(ctx, querySelectConversationBySession, sessionID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, txError("find conversation by session", err)
	}

	return s.GetConversation(ctx, id)
}

func (s *SQLiteStore) UpdateConversation(ctx context.Context, id string, update models.ConversationUpdate) (*models.Conversation, error) {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, txError("begin update", err)
	}
	defer tx.Rollback()

	h, err := loadHeader(ctx, tx, id)
	if err != nil {
		return nil, txError("load conversation", err)
	}
	if h == nil {
		return nil, ErrNotFound
	}

	if err := s.applyUpdate(ctx, tx, h, update); err != nil {
		return nil, err
	}

	messages, err := loadMessages(ctx, tx, id)
	if err != nil {
		return nil, txError("load messages", err)
	}
	h.conv.Messages = messages

	if err := tx.Commit(); err != nil {
		return nil, txError("commit update", err)
	}

	return &h.conv, nil
}

// AddMessage appends msg to the end of the conversation, refreshes the
// preview and derives the title from the first user message while the
// title is still the default. The whole read-modify-write runs in one
// transaction on the single write connection.
func (s *SQLiteStore) AddMessage(ctx context.Context, conversationID string, msg models.ChatMessage) error {
	if !msg.Type.Valid() {
		return fmt.Errorf("invalid message type %q", msg.Type)
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}

	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return txError("begin add message", err)
	}
	defer tx.Rollback()

	h, err := loadHeader(ctx, tx, conversationID)
	if err != nil {
		return txError("load conversation", err)
	}
	if h == nil {
		return ErrNotFound
	}

	var position int64
	if err := tx.QueryRowContext(ctx, queryNextPosition, conversationID).Scan(&position); err != nil {
		return txError("allocate message position", err)
	}

	if err := insertMessage(ctx, tx, conversationID, position, msg); err != nil {
		return txError("insert message", err)
	}

	preview := truncateRunes(msg.Content, PreviewLength)
	update := models.ConversationUpdate{Preview: &preview}

	if h.conv.Title == models.DefaultTitle {
		var first string
		err := tx.QueryRowContext(ctx, queryHasUserMessage, conversationID).Scan(&first)
		switch {
		case err == nil:
			title := deriveTitle(first)
			update.Title = &title
		case !errors.Is(err, sql.ErrNoRows):
			return txError("find first user message", err)
		}
	}

	if err := s.applyUpdate(ctx, tx, h, update); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return txError("commit add message", err)
	}

	return nil
}

// DeleteConversation removes the conversation and its messages. Deleting a
// missing id is not an error.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return txError("begin delete", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryDeleteMessages, id); err != nil {
		return txError("delete messages", err)
	}
	if _, err := tx.ExecContext(ctx, queryDeleteConversation, id); err != nil {
		return txError("delete conversation", err)
	}

	return txError("commit delete", tx.Commit())
}

func (s *SQLiteStore) ListConversations(ctx context.Context, filters models.ConversationFilters) ([]models.ConversationListItem, error) {
	field := "updated_at"
	if filters.SortBy == models.SortByCreatedAt {
		field = "created_at"
	}
	order := "DESC"
	if filters.SortOrder == models.SortAsc {
		order = "ASC"
	}

	query := queryListConversations + " ORDER BY c." + field + " " + order + ", c.id " + order

	rows, err := s.readDB.QueryContext(ctx, query)
	if err != nil {
		return nil, txError("list conversations", err)
	}
	defer rows.Close()

	term := strings.ToLower(strings.TrimSpace(filters.Search))

	items := []models.ConversationListItem{}
	for rows.Next() {
		item, err := scanListItem(rows)
		if err != nil {
			return nil, txError("scan conversation", err)
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(item.Title), term) &&
			!strings.Contains(strings.ToLower(item.Preview), term) {
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, txError("list conversations", err)
	}

	return items, nil
}

// ClearAll removes every conversation.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return txError("begin clear", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryDeleteAllMessages); err != nil {
		return txError("clear messages", err)
	}
	if _, err := tx.ExecContext(ctx, queryDeleteAll); err != nil {
		return txError("clear conversations", err)
	}

	return txError("commit clear", tx.Commit())
}

// applyUpdate merges update into h and writes it. UpdatedAt never moves
// backwards, so it stays >= CreatedAt even if the wall clock steps back.
func (s *SQLiteStore) applyUpdate(ctx context.Context, q querier, h *header, update models.ConversationUpdate) error {
	if update.Title != nil {
		h.conv.Title = *update.Title
	}
	if update.Preview != nil {
		h.conv.Preview = *update.Preview
	}
	if update.ServerSessionID != nil {
		h.conv.ServerSessionID = *update.ServerSessionID
	}

	now := s.now()
	if now.Before(h.conv.UpdatedAt) {
		now = h.conv.UpdatedAt
	}
	h.conv.UpdatedAt = now

	res, err := q.ExecContext(ctx, queryUpdateConversation,
		h.conv.Title, h.conv.Preview, h.conv.ServerSessionID, now.UnixNano(),
		h.conv.ID, h.revision,
	)
	if err != nil {
		return txError("update conversation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return txError("update conversation", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: conversation %s changed concurrently", ErrTransactionFailure, h.conv.ID)
	}
	h.revision++

	return nil
}

func loadHeader(ctx context.Context, q querier, id string) (*header, error) {
	var (
		h                header
		created, updated int64
	)
	err := q.QueryRowContext(ctx, querySelectConversation, id).Scan(
		&h.conv.ID, &h.conv.Title, &h.conv.Preview, &h.conv.ServerSessionID,
		&created, &updated, &h.revision,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	h.conv.CreatedAt = time.Unix(0, created)
	h.conv.UpdatedAt = time.Unix(0, updated)
	h.conv.Messages = []models.ChatMessage{}

	return &h, nil
}

func loadMessages(ctx context.Context, q querier, conversationID string) ([]models.ChatMessage, error) {
	rows, err := q.QueryContext(ctx, querySelectMessages, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var (
			msg                 models.ChatMessage
			msgType             string
			images, suggestions string
			ts                  int64
		)
		err := rows.Scan(&msg.ID, &msgType, &msg.Content, &images, &suggestions, &ts,
			&msg.Event, &msg.EventID, &msg.PointcloudID, &msg.ViewURL)
		if err != nil {
			return nil, err
		}
		msg.Type = models.MessageType(msgType)
		msg.Timestamp = time.Unix(0, ts)

		if images != "" {
			if err := json.Unmarshal([]byte(images), &msg.Images); err != nil {
				return nil, fmt.Errorf("failed to decode images of message %s: %w", msg.ID, err)
			}
		}
		if suggestions != "" {
			if err := json.Unmarshal([]byte(suggestions), &msg.Suggestions); err != nil {
				return nil, fmt.Errorf("failed to decode suggestions of message %s: %w", msg.ID, err)
			}
		}

		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func insertMessage(ctx context.Context, q querier, conversationID string, position int64, msg models.ChatMessage) error {
	var images, suggestions string
	if len(msg.Images) > 0 {
		b, err := json.Marshal(msg.Images)
		if err != nil {
			return fmt.Errorf("failed to encode images: %w", err)
		}
		images = string(b)
	}
	if len(msg.Suggestions) > 0 {
		b, err := json.Marshal(msg.Suggestions)
		if err != nil {
			return fmt.Errorf("failed to encode suggestions: %w", err)
		}
		suggestions = string(b)
	}

	_, err := q.ExecContext(ctx, queryInsertMessage,
		msg.ID, conversationID, position, string(msg.Type), msg.Content, images, suggestions,
		msg.Timestamp.UnixNano(), msg.Event, msg.EventID, msg.PointcloudID, msg.ViewURL,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListItem(rows rowScanner, extra ...any) (models.ConversationListItem, error) {
	var (
		item             models.ConversationListItem
		created, updated int64
	)
	dest := append([]any{
		&item.ID, &item.Title, &item.Preview, &item.ServerSessionID,
		&created, &updated, &item.MessageCount,
	}, extra...)
	if err := rows.Scan(dest...); err != nil {
		return item, err
	}
	item.CreatedAt = time.Unix(0, created)
	item.UpdatedAt = time.Unix(0, updated)
	return item, nil
}

func deriveTitle(content string) string {
	title := truncateRunes(strings.TrimSpace(content), TitleLength)
	if title == "" {
		return models.DefaultTitle
	}
	return title
}

func truncateRunes(content string, maxLen int) string {
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen])
}

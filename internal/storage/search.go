package storage

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jasperwreed/pixel-chat/internal/models"
)

// SearchMessages runs a full-text query over stored message content. Each
// whitespace-separated term is quoted, so FTS5 operators in user input are
// matched literally.
func (s *SQLiteStore) SearchMessages(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return []models.SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.readDB.QueryContext(ctx, querySearchMessages, match, limit)
	if err != nil {
		return nil, txError("search messages", err)
	}
	defer rows.Close()

	results := []models.SearchResult{}
	for rows.Next() {
		var (
			result  models.SearchResult
			content string
			score   float64
		)
		item, err := scanListItem(rows, &result.MessageID, &content, &score)
		if err != nil {
			return nil, txError("scan search result", err)
		}
		result.Conversation = item
		result.Snippet = truncateContent(content, 200)
		// bm25 is lower-is-better and negative for matches.
		result.Score = -score
		results = append(results, result)
	}

	return results, txError("search messages", rows.Err())
}

func (s *SQLiteStore) GetStats(ctx context.Context) (*models.ConversationStats, error) {
	stats := &models.ConversationStats{
		TypeBreakdown: make(map[models.MessageType]int),
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{queryCountConversations, &stats.TotalConversations},
		{queryCountMessages, &stats.TotalMessages},
		{queryCountLinked, &stats.LinkedSessions},
	}
	for _, c := range counts {
		if err := s.readDB.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, txError("count", err)
		}
	}

	rows, err := s.readDB.QueryContext(ctx, queryGroupByType)
	if err != nil {
		return nil, txError("group by type", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msgType string
		var count int
		if err := rows.Scan(&msgType, &count); err != nil {
			return nil, txError("scan type count", err)
		}
		stats.TypeBreakdown[models.MessageType(msgType)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, txError("group by type", err)
	}

	imageRows, err := s.readDB.QueryContext(ctx, querySelectImageColumns)
	if err != nil {
		return nil, txError("count images", err)
	}
	defer imageRows.Close()

	for imageRows.Next() {
		var raw string
		if err := imageRows.Scan(&raw); err != nil {
			return nil, txError("scan images", err)
		}
		var images []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &images); err == nil {
			stats.TotalImages += len(images)
		}
	}
	if err := imageRows.Err(); err != nil {
		return nil, txError("count images", err)
	}

	return stats, nil
}

func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

func truncateContent(content string, maxLen int) string {
	if len([]rune(content)) <= maxLen {
		return content
	}
	return strings.TrimSpace(truncateRunes(content, maxLen)) + "..."
}

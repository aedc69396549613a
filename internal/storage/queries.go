package storage

// Database schema queries
const (
	queryCreateConversationsTable = `CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		preview TEXT NOT NULL DEFAULT '',
		server_session_id TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		revision INTEGER NOT NULL DEFAULT 0
	)`

	queryCreateMessagesTable = `CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		images TEXT NOT NULL DEFAULT '',
		suggestions TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL,
		event TEXT NOT NULL DEFAULT '',
		event_id TEXT NOT NULL DEFAULT '',
		pointcloud_id TEXT NOT NULL DEFAULT '',
		view_url TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	)`

	queryCreateMessagesFTS = `CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
		content,
		content=messages
	)`

	queryCreateIndexMessagesConversation = `CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, position)`
	queryCreateIndexConversationsCreated = `CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at)`
	queryCreateIndexConversationsUpdated = `CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at)`
	queryCreateIndexConversationsSession = `CREATE INDEX IF NOT EXISTS idx_conversations_session ON conversations(server_session_id)`

	queryCreateMessagesInsertTrigger = `CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages
	BEGIN
		INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
	END`

	queryCreateMessagesDeleteTrigger = `CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages
	BEGIN
		INSERT INTO messages_fts(messages_fts, rowid, content) VALUES ('delete', old.rowid, old.content);
	END`

	queryInsertConversation = `INSERT INTO conversations (id, title, preview, server_session_id, created_at, updated_at, revision)
		VALUES (?, ?, ?, ?, ?, ?, 0)`

	querySelectConversation = `SELECT id, title, preview, server_session_id, created_at, updated_at, revision
		FROM conversations WHERE id = ?`

	querySelectConversationBySession = `SELECT id FROM conversations
		WHERE server_session_id = ? ORDER BY updated_at DESC LIMIT 1`

	queryUpdateConversation = `UPDATE conversations
		SET title = ?, preview = ?, server_session_id = ?, updated_at = ?, revision = revision + 1
		WHERE id = ? AND revision = ?`

	queryInsertMessage = `INSERT INTO messages (id, conversation_id, position, type, content, images, suggestions,
		timestamp, event, event_id, pointcloud_id, view_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	querySelectMessages = `SELECT id, type, content, images, suggestions, timestamp, event, event_id, pointcloud_id, view_url
		FROM messages WHERE conversation_id = ? ORDER BY position`

	queryNextPosition = `SELECT COALESCE(MAX(position), -1) + 1 FROM messages WHERE conversation_id = ?`

	queryHasUserMessage = `SELECT content FROM messages WHERE conversation_id = ? AND type = 'user' ORDER BY position LIMIT 1`

	queryListConversations = `SELECT c.id, c.title, c.preview, c.server_session_id, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		FROM conversations c`

	queryDeleteMessages     = `DELETE FROM messages WHERE conversation_id = ?`
	queryDeleteConversation = `DELETE FROM conversations WHERE id = ?`
	queryDeleteAllMessages  = `DELETE FROM messages`
	queryDeleteAll          = `DELETE FROM conversations`

	querySearchMessages = `
		SELECT
			c.id, c.title, c.preview, c.server_session_id, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM messages x WHERE x.conversation_id = c.id),
			m.id, m.content, bm25(messages_fts) AS score
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN conversations c ON m.conversation_id = c.id
		WHERE messages_fts MATCH ?
		ORDER BY score
		LIMIT ?`

	queryCountConversations = `SELECT COUNT(*) FROM conversations`
	queryCountMessages      = `SELECT COUNT(*) FROM messages`
	queryCountLinked        = `SELECT COUNT(*) FROM conversations WHERE server_session_id != ''`
	queryGroupByType        = `SELECT type, COUNT(*) FROM messages GROUP BY type`
	querySelectImageColumns = `SELECT images FROM messages WHERE images != ''`
)

package store

import (
	"context"

	"github.com/ZZZSleepy333/whatsapp-clone/internal/models"
)

// DataStore is the narrow interface to the durable user directory. Both
// PostgresStore and SQLiteStore implement it; the relay only ever learns a
// user's email and when they were last connected.
type DataStore interface {
	Close()
	Ping(ctx context.Context) error

	// TouchLastSeen upserts the user row and stamps last_seen with the
	// current time.
	TouchLastSeen(ctx context.Context, email string) error
	GetUser(ctx context.Context, email string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// History records relayed messages for read-back. Implementations are
// best-effort caches, not systems of record: the external message store
// remains authoritative.
type History interface {
	AddMessage(ctx context.Context, msg *models.StoredMessage) error
	ConversationMessages(ctx context.Context, conversationID string, limit int, before int64) ([]models.StoredMessage, error)
}

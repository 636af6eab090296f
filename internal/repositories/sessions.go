package repository

import (
	"encoding/json"
	"fmt"

	"github.com/minimart/minimart/internal/models"
	"github.com/minimart/minimart/internal/storage"
)

// Sessions loads all live sessions keyed by token.
func Sessions(tx *storage.Tx) (map[string]models.Session, error) {
	raw, ok, err := tx.Get(storage.CollectionSessions)
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.Session)

	doc, valid := decodeDocument(raw)
	if !ok || !valid {
		if err := resetCollection(tx, storage.CollectionSessions, "{}"); err != nil {
			return nil, err
		}

		return out, nil
	}

	for token, rawRec := range doc {
		var v any
		if err := json.Unmarshal(rawRec, &v); err != nil {
			continue
		}

		if s, ok := projectSession(token, v); ok {
			out[s.Token] = s
		}
	}

	return out, nil
}

func SaveSessions(tx *storage.Tx, sessions map[string]models.Session) error {
	raw, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encoding sessions: %w", err)
	}

	return tx.Put(storage.CollectionSessions, raw)
}

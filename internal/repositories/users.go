package repository

import (
	"encoding/json"
	"fmt"

	"github.com/minimart/minimart/internal/models"
	"github.com/minimart/minimart/internal/storage"
)

// Users loads the user table keyed by username.
func Users(tx *storage.Tx) (map[string]models.User, error) {
	raw, ok, err := tx.Get(storage.CollectionUsers)
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.User)

	doc, valid := decodeDocument(raw)
	if !ok || !valid {
		if err := resetCollection(tx, storage.CollectionUsers, "{}"); err != nil {
			return nil, err
		}

		return out, nil
	}

	for username, rawRec := range doc {
		var v any
		if err := json.Unmarshal(rawRec, &v); err != nil {
			continue
		}

		if u, ok := projectUser(v); ok {
			out[username] = u
		}
	}

	return out, nil
}

func SaveUsers(tx *storage.Tx, users map[string]models.User) error {
	// Password is excluded from the API encoding of User, but it must
	// survive persistence, so users are stored through a private shape.
	type storedUser struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}

	doc := make(map[string]storedUser, len(users))
	for username, u := range users {
		doc[username] = storedUser{Username: u.Username, Password: u.Password, Role: u.Role}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding users: %w", err)
	}

	return tx.Put(storage.CollectionUsers, raw)
}

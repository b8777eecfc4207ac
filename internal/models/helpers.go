package models

import (
	"fmt"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RecordIDString extracts the string key of a record id.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected record key type %T in %s", id.ID, id.Table)
	}
	return s, nil
}

// Key returns the record key of r, or "" when it is not a string.
func (r Run) Key() string {
	s, _ := RecordIDString(r.ID)
	return s
}

// Key returns the signature key of s, or "" when it is not a string.
func (s DecaySignature) Key() string {
	k, _ := RecordIDString(s.ID)
	return k
}

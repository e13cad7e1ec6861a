package domain

import (
	"strings"

	"github.com/google/uuid"
)

// tempIDPrefix marks client-generated ids for entities the collaborator has
// not seen yet. The prefix keeps them syntactically distinct from server ids
// so the dispatcher can tell which creates still need id reconciliation.
const tempIDPrefix = "tmp_"

// NewTempID returns a fresh client-temporary id.
func NewTempID() string {
	return tempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id was generated by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

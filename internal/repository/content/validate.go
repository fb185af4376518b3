package content

import (
	"fmt"

	"github.com/google/uuid"
	"prdtool/internal/domain"
)

// canonicalUUIDLength is the length of the 8-4-4-4-12 textual form.
const canonicalUUIDLength = 36

// validateIDs rejects anything that is not a canonical UUID. Identifiers are
// used to build paths and object keys, so this runs before any I/O.
func validateIDs(op, ownerID, documentID string) error {
	if err := validateID(ownerID); err != nil {
		return &domain.StorageError{Op: op, Err: fmt.Errorf("invalid owner id: %w", err)}
	}
	if err := validateID(documentID); err != nil {
		return &domain.StorageError{Op: op, Err: fmt.Errorf("invalid document id: %w", err)}
	}
	return nil
}

func validateID(id string) error {
	// uuid.Parse also accepts braces, urn: prefixes and the 32-digit form
	if len(id) != canonicalUUIDLength {
		return fmt.Errorf("%q is not a canonical uuid", id)
	}
	if _, err := uuid.Parse(id); err != nil {
		return err
	}
	return nil
}

package atom

import (
	"github.com/google/uuid"

	"github.com/cuemby/protobase/pkg/pberr"
)

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, pberr.Corruptionf("atom: invalid transaction_id %q: %v", s, err)
	}
	return id, nil
}

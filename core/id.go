package core

import (
	"fmt"

	"github.com/damiantriebl/pgworkspace/schema"
)

// nextIDLocked mints a fresh tab id from the kind and a monotonic counter.
// A collision against loaded state is a defect; it is logged and the
// counter advances until the id is unique.
func (s *Store) nextIDLocked(kind schema.TabKind) schema.TabID {
	for {
		id := schema.TabID(fmt.Sprintf("%s-%d", kind, s.seq))
		s.seq++
		if _, exists := s.tabs[id]; !exists {
			return id
		}
		s.logger.Error("tab id collision", "id", id)
	}
}

package cos

import (
	"sync"

	"github.com/teris-io/shortid"
)

var (
	sidMu sync.Mutex
	sid   *shortid.Shortid
)

func init() {
	s, err := shortid.New(1, shortid.DefaultABC, 0x4272)
	if err != nil {
		panic(err)
	}
	sid = s
}

// GenShortID returns a short, loggable id — used for work-package ids
// (cluster.WorkPackage.WPID), never for objectID (which must be the
// monotonic counter in store, per §9 "Counter allocation").
func GenShortID() string {
	sidMu.Lock()
	defer sidMu.Unlock()
	id, err := sid.Generate()
	if err != nil {
		// Shortid's entropy source is process-local and never fails in
		// practice; fall back to a fixed placeholder id rather than panic
		// on a hot path.
		return "wp-fallback"
	}
	return id
}

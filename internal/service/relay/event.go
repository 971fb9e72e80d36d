package relay

import (
	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

type eventKind int

const (
	evLookup eventKind = iota
	evFetched
	evHide
	evNavigate
	evSelection
	evDictionary
	evShutdown
	evParentGone
)

// event is a message to the relay loop. Only the fields relevant to kind
// are set.
type event struct {
	kind eventKind

	request domain.LookupRequest

	id     uint64
	result domain.LookupResult
	err    error

	step       int
	text       string
	dictionary string
}

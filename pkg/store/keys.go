package store

import "strings"

// Key layout. Participant names and conversation ids are joined with the
// 0x1f unit separator so free-form user identifiers cannot collide with the
// key structure.
//
//	conv:<id>                     -> conversation JSON document
//	convset:<p1>\x1f<p2>...       -> conversation id (exact participant set)
//	member:<user>\x1f<convID>     -> conversation id (per-user listing)
const (
	convPrefix   = "conv:"
	setPrefix    = "convset:"
	memberPrefix = "member:"
	sep          = "\x1f"
)

func convKey(id string) []byte {
	return []byte(convPrefix + id)
}

// setKey builds the exact participant-set index key. Callers must pass a
// canonical (sorted, deduplicated) set.
func setKey(participants []string) []byte {
	return []byte(setPrefix + strings.Join(participants, sep))
}

func memberKey(user, convID string) []byte {
	return []byte(memberPrefix + user + sep + convID)
}

func memberScanPrefix(user string) []byte {
	return []byte(memberPrefix + user + sep)
}

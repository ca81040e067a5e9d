package redis

const (
	// KeyRecents is the list of recent search phrases, newest first.
	KeyRecents = "qb:recents"
	// KeyHistory is the hash of cached browsing-history entries, keyed by URL.
	KeyHistory = "qb:history"
	// KeyUsage is the hash of usage stats, keyed by candidate key.
	KeyUsage = "qb:usage"
	// KeyBlocklist is the set of blocked candidate keys.
	KeyBlocklist = "qb:blocklist"
	// KeyPrefixSession is the prefix for chat session keys.
	KeyPrefixSession = "qb:session:"
	// KeyAllSessions is the set of all chat session IDs.
	KeyAllSessions = "qb:sessions:all"
)

// SessionKey returns the Redis key for a chat session by ID.
func SessionKey(id string) string {
	return KeyPrefixSession + id
}

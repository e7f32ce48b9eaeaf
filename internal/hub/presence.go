package hub

// presenceRegistry maps user identities to the connection that most recently
// announced them. Last writer wins: a second connection announcing the same
// identity silently takes over the entry.
//
// Not safe for concurrent use. All access happens on the hub's run goroutine.
type presenceRegistry struct {
	byUser map[string]string // identity -> connection id
}

func newPresenceRegistry() *presenceRegistry {
	return &presenceRegistry{byUser: make(map[string]string)}
}

// Set upserts the entry for identity.
func (p *presenceRegistry) Set(identity, connID string) {
	p.byUser[identity] = connID
}

// RemoveConn deletes the entry owned by connID, if any, and reports the
// identity that went offline. Each connection holds at most one identity,
// so at most one entry is removed.
func (p *presenceRegistry) RemoveConn(connID string) (identity string, removed bool) {
	for user, id := range p.byUser {
		if id == connID {
			delete(p.byUser, user)
			return user, true
		}
	}
	return "", false
}

// Snapshot returns the currently online identities. Order is not significant.
func (p *presenceRegistry) Snapshot() []string {
	users := make([]string, 0, len(p.byUser))
	for user := range p.byUser {
		users = append(users, user)
	}
	return users
}

// Len reports how many identities are online.
func (p *presenceRegistry) Len() int {
	return len(p.byUser)
}

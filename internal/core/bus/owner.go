package bus

import "strings"

const ownerSep = ":"

// Owned is event as seen by one owner's listeners, e.g.
// "project-updated:uid-1". Record changes are always announced per owner.
func Owned(event, owner string) string {
	return event + ownerSep + owner
}

// Unowned strips the owner from an event name. Names without one are
// returned unchanged.
func Unowned(event string) string {
	name, _, _ := strings.Cut(event, ownerSep)
	return name
}

type ownerSubscriber struct {
	sub   Subscriber
	owner string
}

// ForOwner returns a Subscriber that registers for owner's copy of every
// event it is asked about.
func ForOwner(sub Subscriber, owner string) Subscriber {
	return ownerSubscriber{sub: sub, owner: owner}
}

func (s ownerSubscriber) Subscribe(event string, h Handler) Unsubscribe {
	return s.sub.Subscribe(Owned(event, s.owner), h)
}

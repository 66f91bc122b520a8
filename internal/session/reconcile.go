package session

import "github.com/mklancir/orbit/internal/domain"

// reconcile merges the authoritative message sequence with local optimistic
// entries that are still awaiting confirmation. It is keyed by identity: an
// optimistic entry whose id already appears in the authoritative sequence is
// dropped rather than re-appended, which makes a push notification for a
// message the session already rendered a no-op. Authoritative order is
// preserved; pending entries follow in the order they were sent.
func reconcile(authoritative, optimistic []domain.Message) []domain.Message {
	merged := make([]domain.Message, 0, len(authoritative)+len(optimistic))
	merged = append(merged, authoritative...)

	seen := make(map[string]struct{}, len(authoritative))
	for _, m := range authoritative {
		seen[m.ID.String()] = struct{}{}
	}
	for _, m := range optimistic {
		if _, ok := seen[m.ID.String()]; ok {
			continue
		}
		merged = append(merged, m)
	}
	return merged
}

// insertOrdered places a confirmed message into the authoritative sequence
// at its (created_at, id) position, idempotently: if the id is already
// present (the push got there first) the sequence is returned unchanged.
func insertOrdered(messages []domain.Message, msg domain.Message) []domain.Message {
	for _, m := range messages {
		if m.ID == msg.ID {
			return messages
		}
	}
	idx := len(messages)
	for i, m := range messages {
		if msg.CreatedAt.Before(m.CreatedAt) ||
			(msg.CreatedAt.Equal(m.CreatedAt) && msg.ID.String() < m.ID.String()) {
			idx = i
			break
		}
	}
	out := make([]domain.Message, 0, len(messages)+1)
	out = append(out, messages[:idx]...)
	out = append(out, msg)
	out = append(out, messages[idx:]...)
	return out
}

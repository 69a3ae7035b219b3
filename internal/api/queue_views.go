package api

import (
	"cmp"
	"slices"
	"time"
)

// SortQueueItemsNewestFirst returns a copy of items ordered by CreatedAt
// descending. Items with equal or unparseable timestamps fall back to ID
// descending, which matches enqueue order.
func SortQueueItemsNewestFirst(items []QueueItem) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	type keyed struct {
		item    QueueItem
		created time.Time
	}
	keyedItems := make([]keyed, len(items))
	for i, item := range items {
		keyedItems[i] = keyed{item: item, created: parseQueueTime(item.CreatedAt)}
	}
	slices.SortStableFunc(keyedItems, func(a, b keyed) int {
		if c := b.created.Compare(a.created); c != 0 {
			return c
		}
		return cmp.Compare(b.item.ID, a.item.ID)
	})
	sorted := make([]QueueItem, len(keyedItems))
	for i, k := range keyedItems {
		sorted[i] = k.item
	}
	return sorted
}

// parseQueueTime accepts the RFC 3339 timestamps the queue store writes.
// Anything else sorts as the zero time.
func parseQueueTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

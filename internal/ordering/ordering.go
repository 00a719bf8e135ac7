// Package ordering keeps the client-held display order of each category.
//
// The object store decides which images exist; the order list is only a display
// hint. Every time a category is viewed the persisted order is reconciled against
// the store listing: ids the store no longer has are dropped and ids the order does
// not know yet are appended in store order.
package ordering

// Reconcile filters persisted down to ids present in canonical, then appends the
// canonical ids missing from it. The result never aliases persisted.
func Reconcile(persisted, canonical []string) []string {
	present := make(map[string]struct{}, len(canonical))
	for _, id := range canonical {
		present[id] = struct{}{}
	}

	out := make([]string, 0, len(canonical))
	kept := make(map[string]struct{}, len(canonical))
	for _, id := range persisted {
		if _, ok := present[id]; !ok {
			continue
		}
		if _, dup := kept[id]; dup {
			continue
		}
		kept[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range canonical {
		if _, ok := kept[id]; ok {
			continue
		}
		kept[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// MoveUp swaps the item at idx with its predecessor. Moving the first item, or an
// index out of range, is a no-op.
func MoveUp(order []string, idx int) []string {
	if idx <= 0 || idx >= len(order) {
		return order
	}
	order[idx-1], order[idx] = order[idx], order[idx-1]
	return order
}

// MoveDown swaps the item at idx with its successor. Moving the last item, or an
// index out of range, is a no-op.
func MoveDown(order []string, idx int) []string {
	if idx < 0 || idx >= len(order)-1 {
		return order
	}
	order[idx], order[idx+1] = order[idx+1], order[idx]
	return order
}

// DragReorder removes the item at from and reinserts it at to, shifting the items
// in between.
func DragReorder(order []string, from, to int) []string {
	if from < 0 || from >= len(order) || to < 0 || to >= len(order) || from == to {
		return order
	}
	item := order[from]
	if from < to {
		copy(order[from:to], order[from+1:to+1])
	} else {
		copy(order[to+1:from+1], order[to:from])
	}
	order[to] = item
	return order
}

// Remove drops id from order, keeping the rest in place
func Remove(order []string, id string) []string {
	out := order[:0]
	for _, v := range order {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

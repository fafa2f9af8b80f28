package queue

import "context"

// GroupPlanEncoder can serialize itself for storage. This is satisfied by
// stackplan.Envelope without requiring a direct import of that package.
type GroupPlanEncoder interface {
	Encode() (string, error)
}

// PersistGroupPlan encodes plan and writes the result to item via store.Update.
// On success the updated item fields (including any store-generated values)
// are written back through the item pointer. Returns a non-nil error when
// encoding or persistence fails; callers decide how to log the result.
func PersistGroupPlan(ctx context.Context, store *Store, item *Item, plan GroupPlanEncoder) error {
	encoded, err := plan.Encode()
	if err != nil {
		return err
	}
	copy := *item
	copy.GroupPlanData = encoded
	if store != nil {
		if err := store.Update(ctx, &copy); err != nil {
			return err
		}
	}
	*item = copy
	return nil
}

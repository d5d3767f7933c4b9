package wishlist

import "context"

// List is the wishlist as seen by one caller. Callers never branch on
// whether someone is logged in; they get the matching implementation.
type List interface {
	Add(ctx context.Context, productID int) error
	Remove(ctx context.Context, productID int) error
	Has(productID int) bool
	Items() []int
}

// Resolve returns the bound list when a user is known, else the anonymous one.
func Resolve(store *Store, userID int, ok bool) List {
	if !ok || store == nil {
		return Anonymous()
	}
	return ForUser(store, userID)
}

// ForUser binds store to one user.
func ForUser(store *Store, userID int) List {
	return userList{store: store, userID: userID}
}

// Anonymous is the list of a visitor with no account: writes are dropped
// and nothing is ever saved.
func Anonymous() List { return anonymousList{} }

type userList struct {
	store  *Store
	userID int
}

func (u userList) Add(ctx context.Context, productID int) error {
	return u.store.AddItem(ctx, u.userID, productID)
}

func (u userList) Remove(ctx context.Context, productID int) error {
	return u.store.RemoveItem(ctx, u.userID, productID)
}

func (u userList) Has(productID int) bool { return u.store.HasItem(u.userID, productID) }

func (u userList) Items() []int { return u.store.GetItems(u.userID) }

type anonymousList struct{}

func (anonymousList) Add(context.Context, int) error    { return nil }
func (anonymousList) Remove(context.Context, int) error { return nil }
func (anonymousList) Has(int) bool                      { return false }
func (anonymousList) Items() []int                      { return []int{} }

package app

import "github.com/repoeli/dinner-hoting-app/internal/model"

// FirstDinnerID is always treated as owned when OwnFirstDinner is set.
const FirstDinnerID model.ID = "1"

// PartitionOptions tunes ownership.
type PartitionOptions struct {
	// OwnFirstDinner keeps the legacy rule that dinner "1" belongs to the
	// current user regardless of its host.
	OwnFirstDinner bool
}

// Partition splits dinners into those user hosts and those they can join.
// Input order is kept in both halves.
func Partition(dinners []model.Dinner, user model.User, opts PartitionOptions) (owned, discoverable []model.Dinner) {
	owned = []model.Dinner{}
	discoverable = []model.Dinner{}
	for _, d := range dinners {
		if Owns(d, user, opts) {
			owned = append(owned, d)
		} else {
			discoverable = append(discoverable, d)
		}
	}
	return owned, discoverable
}

// Owns reports whether user may edit d.
func Owns(d model.Dinner, user model.User, opts PartitionOptions) bool {
	return d.HostedBy(user.ID) || (opts.OwnFirstDinner && d.ID == FirstDinnerID)
}

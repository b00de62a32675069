// Package videopolicy decides whether an actor may perform a privileged
// action on a creator's videos.
//
// Authorization rules:
//   - The creator who owns the videos can do anything
//   - An editor can perform an action when any of their active memberships
//     on the creator's team carries a permission snapshot that grants it
//   - Everyone else is denied, and so is anyone when the lookup fails
//
// Permissions are evaluated on every call and never cached, so removing a
// membership takes effect on the next request.
package videopolicy

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/normalize"
	"github.com/dalemusser/vidcollab/internal/domain/models"
)

// MembershipLister is the slice of the team store the policy reads.
type MembershipLister interface {
	ListActiveFor(ctx context.Context, creator, editor string) ([]models.TeamMembership, error)
}

type Checker struct {
	teams MembershipLister
}

func New(teams MembershipLister) *Checker {
	return &Checker{teams: teams}
}

// CanPerform reports whether actor may perform action on creator's videos.
// A store error yields (false, err).
func (c *Checker) CanPerform(ctx context.Context, actor, creator string, action models.Capability) (bool, error) {
	actor = normalize.Email(actor)
	creator = normalize.Email(creator)
	if actor == "" || creator == "" {
		return false, nil
	}
	if actor == creator {
		return true, nil
	}

	memberships, err := c.teams.ListActiveFor(ctx, creator, actor)
	if err != nil {
		return false, err
	}
	for _, m := range memberships {
		if m.Active() && m.Permissions.Grants(action) {
			return true, nil
		}
	}
	return false, nil
}

// Require is CanPerform that turns a denial into an authorization error.
func (c *Checker) Require(ctx context.Context, op, actor, creator string, action models.Capability) error {
	ok, err := c.CanPerform(ctx, actor, creator, action)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Authorization(op, fmt.Sprintf("missing permission %s", action))
	}
	return nil
}

// RequireAny passes when actor holds at least one of actions.
func (c *Checker) RequireAny(ctx context.Context, op, actor, creator string, actions ...models.Capability) error {
	for _, a := range actions {
		ok, err := c.CanPerform(ctx, actor, creator, a)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return apperr.Authorization(op, "missing permission "+strings.Join(names, " or "))
}

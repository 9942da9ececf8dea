package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/gateway"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/google/uuid"
)

// HouseholdService handles the members of the house and its invitations
type HouseholdService struct {
	deps Deps

	invite       mutation.Spec[invitation]
	revoke       mutation.Spec[uuid.UUID]
	accept       mutation.Spec[uuid.UUID]
	removeMember mutation.Spec[int32]
}

type invitation struct {
	email string
	at    domain.Date
}

// NewHouseholdService creates a new HouseholdService
func NewHouseholdService(deps Deps) *HouseholdService {
	s := &HouseholdService{deps: deps}

	s.invite = mutation.Spec[invitation]{
		Name:    "invitations.create",
		Touches: []cache.Key{cache.KeyInvitations},
		Predict: func(view cache.Getter, in invitation) (mutation.Values, error) {
			if err := domain.ValidateEmail(in.email); err != nil {
				return nil, err
			}
			invites, ok := listOf[domain.Invitation](view, cache.KeyInvitations)
			if !ok {
				return nil, nil
			}
			return mutation.Values{cache.KeyInvitations: appended(invites, domain.Invitation{
				ID:        uuid.New(),
				Email:     in.email,
				CreatedAt: in.at.Time,
			})}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, in invitation) ([]byte, error) {
			return gw.Call(ctx, http.MethodPost, gateway.Collection(gateway.Invitations), map[string]string{"email": in.email})
		},
	}

	s.revoke = mutation.Spec[uuid.UUID]{
		Name:    "invitations.revoke",
		Touches: []cache.Key{cache.KeyInvitations},
		Predict: func(view cache.Getter, id uuid.UUID) (mutation.Values, error) {
			invites, ok := listOf[domain.Invitation](view, cache.KeyInvitations)
			if !ok {
				return nil, nil
			}
			next, found := without(invites, func(i domain.Invitation) bool { return i.ID == id })
			if !found {
				return nil, domain.ErrNotFound
			}
			return mutation.Values{cache.KeyInvitations: next}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, id uuid.UUID) ([]byte, error) {
			return gw.Call(ctx, http.MethodDelete, gateway.Item(gateway.Invitations, id), nil)
		},
	}

	// Accepting moves the user into the inviting house, so every list changes
	s.accept = mutation.Spec[uuid.UUID]{
		Name:        "invitations.accept",
		Touches:     []cache.Key{cache.KeyInvitations},
		Invalidates: cache.AllKeys,
		Predict: func(view cache.Getter, id uuid.UUID) (mutation.Values, error) {
			invites, ok := listOf[domain.Invitation](view, cache.KeyInvitations)
			if !ok {
				return nil, nil
			}
			next, found := replaced(invites, func(i domain.Invitation) bool { return i.ID == id }, func(i domain.Invitation) domain.Invitation {
				i.Accepted = true
				return i
			})
			if !found {
				return nil, domain.ErrNotFound
			}
			return mutation.Values{cache.KeyInvitations: next}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, id uuid.UUID) ([]byte, error) {
			return gw.Call(ctx, http.MethodPost, gateway.Action(gateway.Invitations, id, "accept"), nil)
		},
	}

	s.removeMember = mutation.Spec[int32]{
		Name:    "members.remove",
		Touches: []cache.Key{cache.KeyMembers},
		Predict: func(view cache.Getter, id int32) (mutation.Values, error) {
			members, ok := listOf[domain.Member](view, cache.KeyMembers)
			if !ok {
				return nil, nil
			}
			for _, m := range members {
				if m.ID == id && m.Role == domain.RoleMaster {
					return nil, domain.NewValidationError("member", domain.ErrCannotRemoveOwner)
				}
			}
			next, found := without(members, func(m domain.Member) bool { return m.ID == id })
			if !found {
				return nil, domain.ErrMemberNotFound
			}
			return mutation.Values{cache.KeyMembers: next}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, id int32) ([]byte, error) {
			return gw.Call(ctx, http.MethodDelete, gateway.Item(gateway.Members, id), nil)
		},
	}

	return s
}

// Members returns the users of the house
func (s *HouseholdService) Members(ctx context.Context) ([]domain.Member, error) {
	return readList[domain.Member](ctx, s.deps.Store, cache.KeyMembers)
}

// Invitations returns the invitations sent and received
func (s *HouseholdService) Invitations(ctx context.Context) ([]domain.Invitation, error) {
	return readList[domain.Invitation](ctx, s.deps.Store, cache.KeyInvitations)
}

// Invite sends an invitation to an email address
func (s *HouseholdService) Invite(ctx context.Context, email string) (*mutation.Handle, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return mutation.Dispatch(ctx, s.deps.Engine, s.invite, invitation{email: email, at: s.deps.today()})
}

// Revoke withdraws an invitation
func (s *HouseholdService) Revoke(ctx context.Context, id uuid.UUID) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.revoke, id)
}

// Accept joins the house of an invitation
func (s *HouseholdService) Accept(ctx context.Context, id uuid.UUID) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.accept, id)
}

// RemoveMember removes a user from the house. The owner cannot be removed.
func (s *HouseholdService) RemoveMember(ctx context.Context, id int32) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.removeMember, id)
}

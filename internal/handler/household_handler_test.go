package handler

import (
	"net/http"
	"testing"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pendingInvite = uuid.MustParse("3f2b8f64-5717-4562-b3fc-2c963f66afa6")

func seedHousehold(h *harness) {
	h.store.Set(cache.KeyMembers, []domain.Member{
		{ID: 1, Username: "ana", Email: "ana@example.com", Role: domain.RoleMaster},
		{ID: 2, Username: "bruno", Email: "bruno@example.com", Role: domain.RoleMember},
	})
	h.store.Set(cache.KeyInvitations, []domain.Invitation{{ID: pendingInvite, Email: "carla@example.com"}})
	h.store.Set(cache.KeyAccounts, []domain.Account{})
}

func TestGetMembers(t *testing.T) {
	h := newHarness(t)
	seedHousehold(h)

	rec := h.do(http.MethodGet, "/api/v1/members", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Member](t, rec), 2)
}

func TestInvite(t *testing.T) {
	h := newHarness(t)
	seedHousehold(h)

	status := h.settled(h.do(http.MethodPost, "/api/v1/invitations", map[string]any{"email": " Davi@Example.com "}))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	invites := cached[[]domain.Invitation](t, h, cache.KeyInvitations)
	require.Len(t, invites, 2)
	assert.Equal(t, "davi@example.com", invites[1].Email)

	assertProblem(t, h.do(http.MethodPost, "/api/v1/invitations", map[string]any{"email": "nope"}), http.StatusBadRequest, "email")
}

func TestRevokeInvitation(t *testing.T) {
	h := newHarness(t)
	seedHousehold(h)

	status := h.settled(h.do(http.MethodDelete, "/api/v1/invitations/"+pendingInvite.String(), nil))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	call, _ := h.gw.LastCall()
	assert.Equal(t, "/invitations/"+pendingInvite.String()+"/", call.Path)
	assert.Empty(t, cached[[]domain.Invitation](t, h, cache.KeyInvitations))

	assertProblem(t, h.do(http.MethodDelete, "/api/v1/invitations/42", nil), http.StatusBadRequest, "")
}

func TestAcceptInvitation(t *testing.T) {
	h := newHarness(t)
	seedHousehold(h)

	status := h.settled(h.do(http.MethodPost, "/api/v1/invitations/"+pendingInvite.String()+"/accept", nil))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	assert.True(t, h.store.IsStale(cache.KeyMembers))
	assert.True(t, h.store.IsStale(cache.KeyAccounts))
}

func TestRemoveMember(t *testing.T) {
	h := newHarness(t)
	seedHousehold(h)

	assertProblem(t, h.do(http.MethodDelete, "/api/v1/members/1", nil), http.StatusBadRequest, "member")
	assertProblem(t, h.do(http.MethodDelete, "/api/v1/members/7", nil), http.StatusNotFound, "")

	status := h.settled(h.do(http.MethodDelete, "/api/v1/members/2", nil))
	assert.Equal(t, mutation.StateSucceeded, status.State)
	assert.Len(t, cached[[]domain.Member](t, h, cache.KeyMembers), 1)
}

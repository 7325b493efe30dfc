package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-backend/models"
	"community-backend/repository"
)

func newConversationFixture(t *testing.T) (*ConversationService, map[string]string) {
	t.Helper()
	users := repository.NewInMemoryUserRepo()
	ids := make(map[string]string)
	for _, name := range []string{"alice", "bob", "carol"} {
		u, err := users.Create(name, "hashed")
		require.NoError(t, err)
		ids[name] = u.ID
	}
	return NewConversationService(repository.NewInMemoryConversationRepo(), users), ids
}

func TestConversationServiceCreatePrivate(t *testing.T) {
	svc, ids := newConversationFixture(t)

	conv, err := svc.Create(models.ConversationPrivate, []string{ids["alice"], ids["bob"]}, "")
	require.NoError(t, err)
	assert.Len(t, conv.ParticipantIDs, 2)

	// Duplicate ids collapse; a private chat with yourself is invalid.
	_, err = svc.Create(models.ConversationPrivate, []string{ids["alice"], ids["alice"]}, "")
	assert.Error(t, err)

	_, err = svc.Create(models.ConversationPrivate, []string{ids["alice"], ids["bob"], ids["carol"]}, "")
	assert.Error(t, err, "private is exactly two participants")

	_, err = svc.Create(models.ConversationPrivate, []string{ids["alice"], "ghost"}, "")
	assert.Error(t, err, "participants must exist")
}

func TestConversationServiceCreateGroup(t *testing.T) {
	svc, ids := newConversationFixture(t)

	conv, err := svc.Create(models.ConversationGroup, []string{ids["alice"], ids["bob"], ids["carol"]}, "weekend raid")
	require.NoError(t, err)
	assert.Equal(t, "weekend raid", conv.DisplayName)

	_, err = svc.Create(models.ConversationGroup, []string{ids["alice"], ids["bob"]}, "")
	assert.Error(t, err, "groups need a display name")

	_, err = svc.Create(models.ConversationGroup, []string{ids["alice"]}, "lonely")
	assert.Error(t, err, "groups need at least two participants")

	_, err = svc.Create("broadcast", []string{ids["alice"], ids["bob"]}, "x")
	assert.Error(t, err, "unknown kind rejected")
}

func TestConversationServiceGet(t *testing.T) {
	svc, ids := newConversationFixture(t)

	conv, err := svc.Create(models.ConversationPrivate, []string{ids["alice"], ids["bob"]}, "")
	require.NoError(t, err)

	got, err := svc.Get(conv.ID, ids["alice"])
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	_, err = svc.Get(conv.ID, ids["carol"])
	assert.Error(t, err, "non-participants cannot read the conversation")

	_, err = svc.Get("missing", ids["alice"])
	assert.Error(t, err)
}

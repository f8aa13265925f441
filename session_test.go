package pathwise_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	pathwise "github.com/pathwise-edu/pathwise"
)

func TestSessionObjectRoleFallsBackToStudent(t *testing.T) {
	session := &pathwise.SessionObject{Role: pathwise.UserRole("garbage")}
	assert.Equal(t, pathwise.RoleStudent, session.GetRole())

	session = &pathwise.SessionObject{}
	assert.Equal(t, pathwise.RoleStudent, session.GetRole())
}

func TestSessionObjectHasRole(t *testing.T) {
	session := sessionWithRole(pathwise.RoleConsultant)

	assert.True(t, session.HasRole(pathwise.RoleConsultant))
	assert.False(t, session.HasRole(pathwise.RoleAdmin))
	assert.False(t, session.HasRole(pathwise.RoleStudent))
}

func TestSessionObjectIsAtLeast(t *testing.T) {
	session := sessionWithRole(pathwise.RoleConsultant)

	assert.True(t, session.IsAtLeast(pathwise.RoleStudent))
	assert.True(t, session.IsAtLeast(pathwise.RoleConsultant))
	assert.False(t, session.IsAtLeast(pathwise.RoleAdmin))
}

func TestSessionObjectGetUserUUID(t *testing.T) {
	session := sessionWithRole(pathwise.RoleStudent)

	id, err := session.GetUserUUID()
	assert.NoError(t, err)
	assert.Equal(t, session.GetUserID(), id.String())

	bad := &pathwise.SessionObject{UserID: "not-a-uuid"}
	_, err = bad.GetUserUUID()
	assert.Error(t, err)
}

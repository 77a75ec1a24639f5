package engagement

import (
	"testing"

	"github.com/kapu/dmmymp-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDeriveCommitteesAndRoles(t *testing.T) {
	got := DeriveCommitteesAndRoles([]domain.Office{
		{Position: "Shadow Minister (Health)"},
		{Position: "Opposition Whip"},
		{Position: "Member", Dept: "Education Committee"},
		{Position: "Chair of the Justice Committee"},
		{Position: "Minister on the Environment Committee"},
		{Position: "Backbencher"},
	})

	assert.Equal(t, "Shadow Minister (Health), Opposition Whip", got.Roles)
	assert.Equal(t, "Education Committee, Chair of the Justice Committee, Minister on the Environment Committee", got.Committees)
	assert.Equal(t, "Environmental Policy", got.Focus)
}

func TestDeriveCommitteesAndRolesEmpty(t *testing.T) {
	got := DeriveCommitteesAndRoles(nil)
	assert.Equal(t, "None", got.Roles)
	assert.Equal(t, "None", got.Committees)
	assert.Equal(t, "General", got.Focus)
}

func TestCommitteeFocusPriority(t *testing.T) {
	assert.Equal(t, "Education Policy", committeeFocus("Health Committee, Education Committee"))
	assert.Equal(t, "Defense Policy", committeeFocus("Defence Committee"))
	assert.Equal(t, "Transport Policy", committeeFocus("Transport Committee"))
	assert.Equal(t, "General", committeeFocus("Procedure Committee"))
}

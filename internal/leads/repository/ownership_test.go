package repository

import (
	"testing"

	"github.com/google/uuid"
)

func TestResolveOwnershipPrecedence(t *testing.T) {
	assigned := uuid.New()
	marker := uuid.New()
	nested := uuid.New()

	tests := []struct {
		name   string
		lead   Lead
		want   uuid.UUID
		wantOK bool
	}{
		{
			"assignment column wins over everything",
			Lead{AssignedTo: &assigned, Notes: `{"owner_id":"` + marker.String() + `","context":{"actor_id":"` + nested.String() + `"}}`},
			assigned, true,
		},
		{
			"owner marker wins over nested context",
			Lead{Notes: `{"owner_id":"` + marker.String() + `","context":{"actor_id":"` + nested.String() + `"}}`},
			marker, true,
		},
		{
			"nested context as last resort",
			Lead{Notes: `{"context":{"actor_id":"` + nested.String() + `"}}`},
			nested, true,
		},
		{
			"no source at all",
			Lead{Notes: `{}`},
			uuid.Nil, false,
		},
		{
			"malformed notes degrade to unowned",
			Lead{Notes: `{broken`},
			uuid.Nil, false,
		},
		{
			"non-uuid marker ignored",
			Lead{Notes: `{"owner_id":"not-a-uuid","context":{"actor_id":"` + nested.String() + `"}}`},
			nested, true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveOwnership(tc.lead)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("ResolveOwnership = (%v, %v), want (%v, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestOwnedBy(t *testing.T) {
	me := uuid.New()
	other := uuid.New()

	mine := Lead{AssignedTo: &me}
	if !OwnedBy(mine, me) {
		t.Error("assigned lead should be mine")
	}
	if OwnedBy(mine, other) {
		t.Error("assigned lead should not be someone else's")
	}
	if OwnedBy(Lead{Notes: `{}`}, me) {
		t.Error("unowned lead belongs to nobody")
	}
}

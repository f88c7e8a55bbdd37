package audit

import (
	"github.com/google/uuid"

	"github.com/jmamani/cooperativa-backend/pkg/enums"
)

// EntityRef is a typed reference to the entity an audit record describes.
type EntityRef struct {
	Kind enums.EntityKind
	ID   uuid.UUID
}

func UserRef(id uuid.UUID) EntityRef {
	return EntityRef{Kind: enums.EntityKindUser, ID: id}
}

func MemberRef(id uuid.UUID) EntityRef {
	return EntityRef{Kind: enums.EntityKindMember, ID: id}
}

func ContributionRef(id uuid.UUID) EntityRef {
	return EntityRef{Kind: enums.EntityKindContribution, ID: id}
}

func ProductRef(id uuid.UUID) EntityRef {
	return EntityRef{Kind: enums.EntityKindProduct, ID: id}
}

func DocumentRef(id uuid.UUID) EntityRef {
	return EntityRef{Kind: enums.EntityKindDocument, ID: id}
}

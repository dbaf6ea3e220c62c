package access

import (
	"errors"
	"fmt"

	"tripweaver/models"
)

var ErrForbidden = errors.New("forbidden")

// Role is what a user may do with one itinerary. The set is closed.
type Role int

const (
	None Role = iota
	Viewer
	Collaborator
	Owner
)

func (r Role) String() string {
	switch r {
	case Viewer:
		return "viewer"
	case Collaborator:
		return "collaborator"
	case Owner:
		return "owner"
	}
	return "none"
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "viewer":
		*r = Viewer
	case "collaborator":
		*r = Collaborator
	case "owner":
		*r = Owner
	case "none", "":
		*r = None
	default:
		return fmt.Errorf("unknown role %q", b)
	}
	return nil
}

type Capability int

const (
	View Capability = iota
	Edit
	Comment
	ResolveComment
	ManageShares
	Delete
	Export
)

var matrix = map[Role]map[Capability]bool{
	Viewer: {
		View: true, Comment: true, Export: true,
	},
	Collaborator: {
		View: true, Edit: true, Comment: true, Export: true,
	},
	Owner: {
		View: true, Edit: true, Comment: true, ResolveComment: true,
		ManageShares: true, Delete: true, Export: true,
	},
}

func Can(role Role, c Capability) bool {
	return matrix[role][c]
}

// Require returns ErrForbidden unless role grants c.
func Require(role Role, c Capability) error {
	if !Can(role, c) {
		return ErrForbidden
	}
	return nil
}

// Resolve derives userID's role on an itinerary owned by ownerID, reached
// directly (share == nil) or through share. Anonymous users only get Viewer on
// public shares.
func Resolve(userID, ownerID string, share *models.Share) Role {
	if userID != "" && userID == ownerID {
		return Owner
	}
	if share == nil || share.OwnerID != ownerID {
		return None
	}
	if userID == "" {
		if share.IsPublic {
			return Viewer
		}
		return None
	}
	if share.ShareMode == models.ShareModeCollaborate {
		return Collaborator
	}
	return Viewer
}

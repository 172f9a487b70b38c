package models

import "time"

// Relation names a many-to-many mark between an actor and a target.
type Relation string

const (
	RelationLike       Relation = "like"
	RelationDislike    Relation = "dislike"
	RelationGoing      Relation = "going"
	RelationInterested Relation = "interested"
	RelationFollow     Relation = "follow"
	RelationAdmin      Relation = "admin"
	RelationMember     Relation = "member"
	RelationCongregant Relation = "congregant"
)

// Slot groups mutually exclusive relations. Two marks with the same slot,
// target and actor can never coexist.
func (r Relation) Slot() string {
	switch r {
	case RelationLike, RelationDislike:
		return "vote"
	case RelationGoing, RelationInterested:
		return "rsvp"
	default:
		return string(r)
	}
}

// Valid reports whether r is a known relation.
func (r Relation) Valid() bool {
	switch r {
	case RelationLike, RelationDislike, RelationGoing, RelationInterested,
		RelationFollow, RelationAdmin, RelationMember, RelationCongregant:
		return true
	}
	return false
}

// Mark is one (relation, target, actor) row.
type Mark struct {
	Relation  Relation  `json:"relation"`
	TargetID  int64     `json:"target_id"`
	ActorID   int64     `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

// Follow is a directed edge: AuthorID follows FollowedID. At most one edge
// exists per ordered pair and an author never follows themselves; both rules
// are enforced before every write, with a composite primary key as the
// concurrent-write backstop.
type Follow struct {
	FollowedID string
	AuthorID   string
	CreatedAt  time.Time
}

package comments

import "time"

// Comment is visitor feedback left on the map.
//
// Comments are append-only; there is no update or delete path.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Feedback  string    `json:"message" db:"feedback"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

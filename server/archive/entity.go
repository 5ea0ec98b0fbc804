package archive

import "time"

// Entity is one finished download session as stored in the local
// archive database.
type Entity struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Path      string    `json:"path"`
	Outcome   string    `json:"outcome"`
	CreatedAt time.Time `json:"created_at"`
}

package archive

import "database/sql"

func Container(db *sql.DB) (*Repository, Service) {
	r := &Repository{db: db}
	s := &service{repository: r}
	return r, s
}

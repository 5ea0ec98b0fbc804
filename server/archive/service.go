package archive

import "context"

type Service interface {
	Archive(ctx context.Context, e *Entity) error
	All(ctx context.Context, limit, offset int) ([]Entity, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repository *Repository
}

func (s *service) Archive(ctx context.Context, e *Entity) error {
	return s.repository.Archive(ctx, e)
}

func (s *service) All(ctx context.Context, limit, offset int) ([]Entity, error) {
	return s.repository.All(ctx, limit, offset)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repository.Delete(ctx, id)
}

package channel

import "context"

type Repo interface {
	List(ctx context.Context) ([]*Channel, error)
	GetByID(ctx context.Context, id int64) (*Channel, error)
	GetByName(ctx context.Context, name string) (*Channel, error)
}

package triggers

import (
	"context"
	"errors"
	"fmt"

	"jengamate/backend/internal/domain/claims"
	"jengamate/backend/internal/domain/orderlock"
	"jengamate/backend/internal/logger"

	"cloud.google.com/go/firestore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Watcher feeds Firestore snapshot changes on users and orders into the
// same triggers the HTTP push routes use.
type Watcher struct {
	fs     *firestore.Client
	users  UserTrigger
	orders OrderTrigger
	logg   *logger.Logger
}

func NewWatcher(fs *firestore.Client, users UserTrigger, orders OrderTrigger, logg *logger.Logger) *Watcher {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Watcher{fs: fs, users: users, orders: orders, logg: logg}
}

// Run blocks until ctx is cancelled or a listener fails.
func (w *Watcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	if w.users != nil {
		g.Go(func() error {
			return w.listen(gctx, claims.UsersCollection, newStateCache("role"), func(ctx context.Context, id string, before, after map[string]any) {
				w.users.OnUserUpdated(ctx, id, before, after)
			})
		})
	}
	if w.orders != nil {
		g.Go(func() error {
			return w.listen(gctx, orderlock.OrdersCollection, newStateCache("status"), func(ctx context.Context, id string, before, after map[string]any) {
				w.orders.OnOrderUpdated(ctx, id, before, after)
			})
		})
	}
	return g.Wait()
}

type dispatchFunc func(ctx context.Context, id string, before, after map[string]any)

func (w *Watcher) listen(ctx context.Context, collection string, cache *stateCache, dispatch dispatchFunc) error {
	ctx = w.logg.WithField(ctx, "collection", collection)
	it := w.fs.Collection(collection).Snapshots(ctx)
	defer it.Stop()

	seeded := false
	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("listening to %s: %w", collection, err)
		}

		for _, ch := range snap.Changes {
			dc := docChange{kind: kindOf(ch.Kind), id: ch.Doc.Ref.ID, data: ch.Doc.Data()}
			if !seeded {
				dc.kind = changeAdded
			}
			before, after, ok := cache.apply(dc)
			if ok {
				dispatch(ctx, dc.id, before, after)
			}
		}

		if !seeded {
			seeded = true
			w.logg.Info(w.logg.WithField(ctx, "documents", snap.Size), "watcher seeded")
		}
	}
}

func kindOf(k firestore.DocumentChangeKind) changeKind {
	switch k {
	case firestore.DocumentRemoved:
		return changeRemoved
	case firestore.DocumentModified:
		return changeModified
	default:
		return changeAdded
	}
}

package firebase

import (
	"context"

	"cloud.google.com/go/firestore"
)

// Documents is a thin document writer over a Firestore client, shared by the
// reactive handlers and the seeding command.
type Documents struct {
	fs *firestore.Client
}

func NewDocuments(fs *firestore.Client) *Documents {
	return &Documents{fs: fs}
}

// Merge writes only the given fields, leaving the rest of the document untouched.
func (d *Documents) Merge(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := d.fs.Collection(collection).Doc(id).Set(ctx, data, firestore.MergeAll)
	return err
}

// Set replaces the whole document. data is a map or a struct with firestore tags.
func (d *Documents) Set(ctx context.Context, collection, id string, data any) error {
	_, err := d.fs.Collection(collection).Doc(id).Set(ctx, data)
	return err
}

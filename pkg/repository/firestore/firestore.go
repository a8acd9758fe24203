package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/domain/interfaces"
)

// Collection names of the content store
const (
	documentsCollection = "documents"
	projectsCollection  = "projects"
	blogsCollection     = "blogs"
)

// Firestore reads portfolio content from Firestore collections. Document IDs
// are the doc_id of documents and the slug of projects and blogs.
type Firestore struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var (
		client *firestore.Client
		err    error
	)
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	f := &Firestore{client: client}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) collection(name string) *firestore.CollectionRef {
	return f.client.Collection(f.collectionPrefix + name)
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

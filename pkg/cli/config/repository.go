package config

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/domain/interfaces"
	"github.com/secmon-lab/folio/pkg/repository/firestore"
	"github.com/secmon-lab/folio/pkg/repository/memory"
	"github.com/secmon-lab/folio/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository holds CLI flags for the content store backend
type Repository struct {
	backend          string
	contentPath      string
	projectID        string
	databaseID       string
	collectionPrefix string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Content store backend (memory or firestore)",
			Value:       "memory",
			Category:    "Content",
			Sources:     cli.EnvVars("FOLIO_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "content",
			Aliases:     []string{"c"},
			Usage:       "Content file for the memory backend (TOML or JSON, local path or gs://bucket/object)",
			Category:    "Content",
			Sources:     cli.EnvVars("FOLIO_CONTENT"),
			Destination: &r.contentPath,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Content",
			Sources:     cli.EnvVars("FOLIO_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Content",
			Sources:     cli.EnvVars("FOLIO_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix for the documents, projects and blogs collections",
			Category:    "Content",
			Sources:     cli.EnvVars("FOLIO_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// Store is a configured content store. Reload is set for the memory backend
// and reloads the content file into the store; a failed reload leaves the
// store unchanged.
type Store struct {
	interfaces.Repository
	Reload    func(ctx context.Context) error
	WatchPath string
}

// Configure initializes the content store. The caller is responsible for
// calling Close() on the returned store.
func (r *Repository) Configure(ctx context.Context) (*Store, error) {
	switch r.backend {
	case "firestore":
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingOption, "firestore-project-id is required when using firestore backend")
		}
		var opts []firestore.Option
		if r.collectionPrefix != "" {
			opts = append(opts, firestore.WithCollectionPrefix(r.collectionPrefix))
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return &Store{Repository: repo}, nil

	case "memory", "":
		seed, err := LoadSeed(ctx, r.contentPath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load content")
		}
		repo := memory.NewFromSeed(seed)
		logging.Default().Info("Using in-memory repository",
			"content", r.contentPath,
			"documents", len(seed.Documents),
			"projects", len(seed.Projects),
			"blogs", len(seed.Blogs),
		)

		store := &Store{
			Repository: repo,
			Reload: func(ctx context.Context) error {
				seed, err := LoadSeed(ctx, r.contentPath)
				if err != nil {
					return err
				}
				repo.Replace(seed)
				return nil
			},
		}
		if !strings.HasPrefix(r.contentPath, gcsScheme) {
			store.WatchPath = r.contentPath
		}
		return store, nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V("backend", r.backend))
	}
}

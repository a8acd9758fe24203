package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/domain/types"
)

// Unit ID namespaces. Documents keep their own doc_id.
const (
	ProjectUnitPrefix = "project:"
	BlogUnitPrefix    = "blog:"
)

// RetrievableUnit is one embeddable chunk of portfolio content. Units are
// created by one aggregation pass and are never modified afterwards.
type RetrievableUnit struct {
	ID         string
	SourceKind types.SourceKind
	Title      string
	Text       string
	Metadata   map[string]string
}

// Validate checks the unit invariants
func (u *RetrievableUnit) Validate() error {
	if u.ID == "" {
		return goerr.New("unit ID is required", goerr.V("title", u.Title))
	}
	if !u.SourceKind.IsValid() {
		return goerr.New("invalid unit source kind", goerr.V("id", u.ID), goerr.V("source_kind", u.SourceKind))
	}
	if strings.TrimSpace(u.Text) == "" {
		return goerr.New("unit text must not be empty", goerr.V("id", u.ID))
	}
	return nil
}

package diff

import (
	"context"
	"fmt"

	"github.com/Elpulgo/azdo-prtree/internal/changes"
	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"
)

// ContentSource is the part of the Azure DevOps client the assembler needs.
type ContentSource interface {
	FetchBlob(ctx context.Context, project, repo, blobID string) (string, error)
	FetchContent(ctx context.Context, url string) (string, error)
}

// Side is one half of a before/after pair.
// Present is false when the change type has no such side, or when fetching it failed.
type Side struct {
	Text    string
	Present bool
	Err     error
}

// Pair holds the original and modified content of one file.
type Pair struct {
	Path     string
	Original Side
	Modified Side
}

// Err combines the errors of both sides, or returns nil.
func (p Pair) Err() error {
	var err error
	if p.Original.Err != nil {
		err = multierr.Append(err, fmt.Errorf("original: %w", p.Original.Err))
	}
	if p.Modified.Err != nil {
		err = multierr.Append(err, fmt.Errorf("modified: %w", p.Modified.Err))
	}
	return err
}

// Assembler fetches both sides of a changed file.
type Assembler struct {
	source ContentSource
}

// NewAssembler creates an Assembler reading from source.
func NewAssembler(source ContentSource) *Assembler {
	return &Assembler{source: source}
}

// Assemble resolves the original and modified content for record.
// Adds have no original side and deletes have no modified side; every other
// change type fetches both. The two fetches run concurrently and a failure on
// one side never affects the other.
func (a *Assembler) Assemble(ctx context.Context, project, repo string, record changes.ChangeRecord) Pair {
	pair := Pair{Path: record.Path}

	var wg conc.WaitGroup
	if record.ChangeType != changes.Add {
		wg.Go(func() {
			pair.Original = side(a.source.FetchBlob(ctx, project, repo, record.OriginalBlobID))
		})
	}
	if record.ChangeType != changes.Delete {
		wg.Go(func() {
			pair.Modified = side(a.source.FetchContent(ctx, record.SourceURL))
		})
	}
	wg.Wait()

	return pair
}

func side(text string, err error) Side {
	if err != nil {
		return Side{Err: err}
	}
	return Side{Text: text, Present: true}
}

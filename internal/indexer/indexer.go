package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Kylob/Sitemap/internal/storage"
	"github.com/Kylob/Sitemap/pkg/types"
)

// Indexer is the write path of the Sitemap index. It decides between
// insert, in-place update and no-op by content hash, and keeps the
// content store and the full-text index in lockstep. All writes for the
// session accumulate in its deferred transaction.
type Indexer struct {
	session *storage.Session
}

// New creates an Indexer over an open session.
func New(session *storage.Session) *Indexer {
	return &Indexer{session: session}
}

// Upsert indexes one page under a category. The decision is hash-gated:
//
//   - unknown path: insert into the full-text index to obtain a docid,
//     then insert the document row with that docid;
//   - known path with a changed hash, or currently soft-deleted: update
//     both rows in place, reusing the docid. A soft-deleted page whose
//     content is unchanged is revived with its original updated
//     timestamp, so reinstatement preserves recency;
//   - known path, same hash, not deleted: no write at all.
//
// Every update clears the deleted flag.
func (ix *Indexer) Upsert(ctx context.Context, category string, f types.Fields) error {
	updated := f.Updated
	if updated < 0 {
		updated = -updated
	}
	if updated == 0 {
		updated = time.Now().Unix()
	}

	hash := contentHash(category, f.Path, f.Title, f.Description, f.Keywords, f.Image, f.Content)
	info, err := encodeInfo(f.Extra)
	if err != nil {
		return fmt.Errorf("failed to encode extra fields for %q: %w", f.Path, err)
	}
	search := storage.SearchFields{
		Path:        f.Path,
		Title:       f.Title,
		Description: f.Description,
		Keywords:    f.Keywords,
		Content:     StripTags(f.Content),
	}

	row, err := ix.session.LookupDocument(ctx, f.Path)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if row == nil {
		docid, err := ix.session.InsertSearchRow(ctx, search)
		if err != nil {
			return err
		}
		categoryID, err := ix.session.CategoryID(ctx, category)
		if err != nil {
			return err
		}
		return ix.session.InsertDocument(ctx, &storage.Document{
			DocID:      docid,
			CategoryID: categoryID,
			Path:       f.Path,
			Info:       info,
			Image:      f.Image,
			Content:    f.Content,
			Hash:       hash,
			Updated:    updated,
		})
	}

	if row.Hash == hash && !row.Deleted {
		return nil
	}
	if row.Hash == hash {
		// Revival of an unchanged page keeps the former timestamp.
		updated = row.Updated
	}
	if err := ix.session.UpdateSearchRow(ctx, row.DocID, search); err != nil {
		return err
	}
	categoryID, err := ix.session.CategoryID(ctx, category)
	if err != nil {
		return err
	}
	return ix.session.UpdateDocument(ctx, &storage.Document{
		DocID:      row.DocID,
		CategoryID: categoryID,
		Path:       f.Path,
		Info:       info,
		Image:      f.Image,
		Content:    f.Content,
		Hash:       hash,
		Updated:    updated,
		Deleted:    false,
	})
}

// Reset soft-deletes every document whose category falls under the given
// prefix, in preparation for a bulk re-upsert. Pages that are upserted
// again are revived in place; whatever is left flagged afterwards is
// purged by Sweep. The full-text index is not touched here.
func (ix *Indexer) Reset(ctx context.Context, category string) (int64, error) {
	return ix.session.MarkDeleted(ctx, category)
}

// Delete hard-deletes one path from both the content store and the
// full-text index, regardless of its soft-delete flag. It reports whether
// a document existed.
func (ix *Indexer) Delete(ctx context.Context, path string) (bool, error) {
	row, err := ix.session.LookupDocument(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := ix.session.DeleteSearchRow(ctx, row.DocID); err != nil {
		return false, err
	}
	if err := ix.session.DeleteDocument(ctx, row.DocID); err != nil {
		return false, err
	}
	return true, nil
}

// Sweep hard-deletes every document still flagged from a Reset, purging
// both tables. Returns the number of documents removed.
func (ix *Indexer) Sweep(ctx context.Context) (int, error) {
	ids, err := ix.session.DeletedDocIDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, docid := range ids {
		if err := ix.session.DeleteSearchRow(ctx, docid); err != nil {
			return 0, err
		}
		if err := ix.session.DeleteDocument(ctx, docid); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

// contentHash fingerprints the fixed fields that make a page "changed".
// Field order matters and must stay stable across releases.
func contentHash(fields ...string) string {
	h := sha256.New()
	for _, f := range fields {
		_, _ = h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

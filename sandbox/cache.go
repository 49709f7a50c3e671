package sandbox

import "context"

// Cache records which fingerprints already have a durable snapshot, the
// content-addressed layer that lets a Job with an unchanged closure skip
// execution entirely. A Manager consults Cache before creating a sandbox
// and updates it after a successful TakeSnapshot.
type Cache interface {
	// Has reports whether fingerprint fp has a recorded snapshot.
	Has(ctx context.Context, fp string) (bool, error)
	// MarkSnapshotted records that fp now has a snapshot tagged imageTag.
	MarkSnapshotted(ctx context.Context, fp, imageTag string) error
	// ImageTag returns the snapshot tag recorded for fp.
	ImageTag(ctx context.Context, fp string) (string, error)
}

package storage

// splitStore combines independent checkpoint and page record backends
// behind the Store interface, for deployments that keep checkpoints in
// plain files next to the documents while page records live in badger.
type splitStore struct {
	PageRecordStore
	CheckpointStore
}

var _ Store = (*splitStore)(nil)

// NewSplitStore combines a page record backend with a separate checkpoint
// backend. Close releases the page record backend only; file-based
// checkpoint stores hold no resources.
func NewSplitStore(pages PageRecordStore, checkpoints CheckpointStore) Store {
	return &splitStore{
		PageRecordStore: pages,
		CheckpointStore: checkpoints,
	}
}

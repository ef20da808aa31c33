package models

// SnapshotVersion is the current on-disk snapshot format.
const SnapshotVersion = 1

// Storage is the persistence envelope written by the snapshot file manager.
type Storage struct {
	Version int                     `json:"version"`
	Games   map[string]*GameSession `json:"games"`
}

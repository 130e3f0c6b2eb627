package service

// Well-known keys in the local store. Everything the client persists lives
// under one of these namespaces so the snapshot providers can enumerate it.
const (
	// KeySyncQueue holds the serialized sync queue snapshot.
	KeySyncQueue = "sync/queue"

	// KeyBackupRecords holds the serialized list of retained local backups.
	KeyBackupRecords = "backup/records"

	// AreaKeyPrefix prefixes one key per application data area
	// ("area/forms", "area/preferences", "area/navigation").
	AreaKeyPrefix = "area/"

	// KeyFieldRecords holds the captured field records. Records live under
	// the area namespace so they participate in snapshots like any other
	// area.
	KeyFieldRecords = AreaKeyPrefix + "records"
)

// AreaKey returns the store key for a named application data area.
func AreaKey(name string) string {
	return AreaKeyPrefix + name
}

// Package client wires the field-device runtime: local store, registry
// adapter, connectivity monitor, sync queue and engine, and the backup
// manager, under one explicit Init/Run/Dispose lifecycle.
package client

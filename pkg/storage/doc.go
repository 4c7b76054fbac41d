// Package storage provides the BoltDB-backed persistence for the
// collection core's four stores: the device inventory read-model, the
// encrypted credential (secret) store, the read-only template store, and
// the run/capture history store.
//
// A single BoltStore opens one bbolt database file and keeps one bucket
// per entity kind, values JSON-marshaled. Callers depend on the narrow
// InventoryStore/SecretStore/TemplateStore/HistoryStore interfaces in
// store.go rather than on *BoltStore directly.
package storage

// Package resolver compiles a domain.DeviceFilter into a concrete,
// deterministically ordered device set. It is a read-only query
// over the inventory store; it never mutates device records.
package resolver

package domain

// Template is a structured-text extraction rule identified by a conventional
// vendor_os_command slug. The template store is read-only to the core.
type Template struct {
	Identifier string
	Body string
	DedupHash string
}

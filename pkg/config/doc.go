// Package config holds the collection core's process configuration (data
// directory, capture root, vault password environment variable, worker
// ceiling) and the YAML loaders for job and batch descriptors.
package config

// Package config manages user-level settings stored at ~/.rulebook/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the bundled pack library location and the community index URL. Every key
// can be overridden through a RULEBOOK_-prefixed environment variable.
package config

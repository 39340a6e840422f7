// Package folio provides the content service behind a personal portfolio
// site: typed content collections (hero, projects, simulators, about, skills,
// resume, contact, theme, SEO) stored in a pluggable document store, plus an
// upload area for assets served back by filename.
//
// The package exposes a single Service interface. Document stores (memory,
// MongoDB, Postgres, Bolt), blob stores for uploads (memory, filesystem, S3)
// and an optional list cache (Redis) are provided under subpackages.
//
// Records are insert-only. Every record written through the Service is first
// validated against its model's schema, and every record read back is
// validated again before it is returned.
package folio

/*
Package storage provides the browsing backends for cloudbrowse.

A Backend exposes a two-level namespace of containers and objects, the common
denominator of cloud object stores. Two implementations are included: a local
filesystem backend, where containers are first-level directories under a base
path, and an Amazon S3 backend (also usable with S3-compatible services),
where containers are buckets.
*/
package storage

// Package community talks to the community pack index. It downloads and
// caches the index JSON, searches it, and fetches a pack's repository
// tarball so the registry can install it like a local directory.
//
// Requests block on the context they are given. There is no retry or
// backoff at this layer.
package community

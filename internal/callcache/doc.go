// Package callcache memoizes outbound service calls in a persistent JSON file.
//
// A Store maps a call signature (endpoint plus serialized payload) to the raw
// response body. It is loaded once, written through on every miss, and never
// evicted. A Caller sits in front of the network and consults the Store before
// making a request. Failed calls are never cached, so they are attempted again
// on the next run.
//
// The cache file is owned by a single process at a time; concurrent runs
// against the same file are not supported.
package callcache

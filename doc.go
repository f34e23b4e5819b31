// Package tarantool implements the core of a client for Tarantool's binary
// IPROTO protocol: a framed MessagePack request/response codec with its
// authentication handshake, a multiplexed dispatcher that correlates
// concurrent in-flight requests by sync id, and a schema cache that lets
// callers address spaces and indexes by name.
//
// URI parsing, connection pooling across multiple endpoints, TLS and any
// higher-level query-builder surface are out of scope: a single
// *Connection talks to a single Tarantool instance over a single,
// unencrypted TCP stream.
package tarantool

// Package `relaysrv` implements TCP relay server application.
//
// Every byte sequence received from one connected client is sent as is
// to all other connected clients. Several ports may be served at once:
//
//	relaysrv 9001 9002
//
// By default the server binds "::", so IPv6 and IPv4 clients are served on dual-stack systems.
// Settings may also be loaded from TOML or YAML file, command line flags take precedence:
//
//	relaysrv -config relay.toml -log-level debug
//
// To compile relay server locally, run from package directory:
//
//	go install .
package main

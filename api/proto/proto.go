// Package proto embeds the .proto files that document the wire contract of
// the api services. The services are served with the JSON codec from
// api/rpc, so nothing here is compiled by protoc.
package proto

import "embed"

//go:embed */v1/*.proto
var Files embed.FS

// Package resolver resolves catalog references by fetching documents.
//
// A Resolver turns a reference node's ref key into a catalog.Document via a
// Source, builds the target node tree and registers the target's members in
// the catalog, where the next traversal pass picks them up. Groups are loaded
// the same way when group expansion is enabled.
//
// Sources:
//
//   - Map: in-memory documents keyed by ref
//   - Blob: documents stored in a blobstore.BlobStore, with an LRU in front
//   - resolver/etcd: documents stored under an etcd key prefix
//   - resolver/dynamodb: documents stored in a DynamoDB table
//
// Limit wraps any Source with a resource.Controller.
package resolver

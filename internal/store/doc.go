// package store provides the shared row store used for multi-device
// coordination. The contract is four operations (upsert, update, select,
// subscribe) over JSON rows; the device row is the only synchronization
// primitive the engine relies on.
//
// Two implementations ship: a REST client against a hosted row store with
// websocket change notification, and a sqlite-backed local store with
// in-process subscribers for offline use and tests.
package store

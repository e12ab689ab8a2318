// Package publish writes computed layouts to NATS KV.
//
// Each store has one key, "<prefix>.<storeID>", holding the latest
// types.LayoutRecord. Versions increase monotonically across restarts because
// the publisher discovers the highest stored version before its first write.
package publish

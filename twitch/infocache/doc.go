/*
Package infocache provides a generic expiring cache for remote metadata with
a "never block, stale is ok" read contract.

Reads return immediately with an explicit state instead of blocking on the
network: an unfetched key yields a placeholder, an expired value comes back
stale-but-usable, and in both cases a background fetch is triggered at most
once per key. Completion flows back in through Put and Fail, typically from
a request dispatcher's callback. Values are never evicted; expiry only
reclassifies a read as stale.
*/
package infocache

/*
Package function exposes WebFinger lookups as a Tarmac WebAssembly function.

New registers a waPC handler that receives an "acct:name@domain" resource as
its raw payload and replies with the JRD document as JSON. Lookup failures
are returned to the host as errors; unknown accounts wrap
wetdirt.ErrNoSuchEntity.
*/
package function

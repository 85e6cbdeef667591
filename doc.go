/*
Package wetdirt holds the pieces shared by every part of the directory
backend: the error taxonomy, the OK status sentinel and the RuntimeConfig used
by the host-backed capability clients.

Errors are sentinel values combined with detail through errors.Join, so callers
test them with errors.Is. Database payloads attached to a failure travel as a
*Diagnostic and can be recovered with errors.As.
*/
package wetdirt

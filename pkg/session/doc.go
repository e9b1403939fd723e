/*
Package session loads and saves per-user session documents.

The Manager serializes access per session ID inside one process and, when a
DistributedLocker is configured, across replicas. It does not merge
concurrent read-modify-write cycles of the same session: the last save wins.
*/
package session

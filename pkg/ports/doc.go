/*
Package ports defines the driven ports (interfaces) of relview.

These interfaces keep the composer and the form flow controller free of
storage and routing details, so the same logic runs against memory, file,
redis or SQL backends.

# Key Interfaces

  - SessionStore: persists the per-user session document.
  - Cache: memoizes data views with a time-to-live.
  - URLResolver: reverses route names and resolves paths back to names.
  - DistributedLocker: serializes session access across replicas.
*/
package ports

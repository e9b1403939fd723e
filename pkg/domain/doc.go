/*
Package domain contains the core data model shared by the related-view composer
and the form flow controller.

It is kept pure and free of I/O. Persistence and transport live behind the
interfaces in package ports.

# Key Entities

  - Session: the per-user document holding the form flow, the pending packet and view caches.
  - Frame: one "return-to" point of a form flow.
  - Packet: a payload handed from one form step to the next.
*/
package domain

/*
Journal is a shared-memory, append-only frame log for same-host transport.

One producer maps a journal file read-write and appends fixed-size binary
frames, publishing each append by atomically advancing the write cursor in
the page header. Readers map the same file read-only and chase the cursor
with a latency-tiered poll loop.

# Module
  - writer: single producer, frame append, cursor publish, file growth
  - reader: cursor chasing, frame decode, typed dispatch, poll backoff

# Source
  - ticker frames from the feeder
  - order frames from the feeder

# Produce
  - typed events to consumer handlers

# Sharded
  - one file per producer session
*/
package journal

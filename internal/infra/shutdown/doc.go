// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT/SIGTERM (or an explicit Trigger, e.g. when a
// listener fails) and then runs the registered hooks in reverse
// registration order under a shared timeout, so components stop in the
// opposite order to how they were started.
package shutdown

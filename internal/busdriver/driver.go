// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package busdriver contains the field drivers: long-running producers that
// periodically compute or fetch values for their registered tags and submit
// them through the dispatcher. Drivers suppress and log update errors and
// keep ticking; rejected writes are expected under races and stale clocks.
package busdriver

import "time"

// A BusDriver owns a set of registered tags and emits timestamped writes
// for them. Register must only be called for tags that were created through
// the dispatcher, and only before Start.
type BusDriver interface {
	// DefaultPollRate is the driver's intrinsic cadence, used for tags
	// registered without an override.
	DefaultPollRate() time.Duration

	// RegisterTag declares interest in a tag, optionally overriding the
	// poll rate.
	RegisterTag(name string, pollRate *time.Duration)

	// Start begins emitting writes, one independent periodic task per
	// registered tag. Restart semantics after Stop are not supported.
	Start()

	// Stop requests cessation via a broadcast signal. Best effort: all
	// periodic tasks terminate before their next tick, in-flight updates
	// may still complete.
	Stop()

	// Poll emits one out-of-band write for every registered tag.
	Poll()
}

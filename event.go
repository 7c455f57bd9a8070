// Copyright 2023 The httpc Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpc

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Client to extend it with custom
// functionality.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// plan execution starts.
	//
	// When Client fires BeforeExecutionStart, the execution is non-nil
	// and its plan and route fields are set, but no attempt has been
	// made yet.
	BeforeExecutionStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// individual HTTP request attempt during the plan execution.
	//
	// When Client fires BeforeAttempt, the execution's request field
	// is set to the HTTP request that WILL BE sent after all
	// BeforeAttempt handlers have finished.
	//
	// BeforeAttempt Handlers may modify the execution's request, or
	// some of its fields, thus changing the HTTP request that will be
	// sent. However, BeforeAttempt handlers should clone request fields
	// which have reference types (URL and Header) before changing them
	// to avoid side effects, as these fields initially reference the
	// same-named fields in the plan.
	BeforeAttempt
	// AfterAttemptTimeout identifies the event that occurs after an
	// HTTP request attempt failed because of a timeout error.
	//
	// When Client fires AfterAttemptTimeout, the execution's error
	// field is set to the timeout error, and its attempt timeout
	// counter has been incremented.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after an HTTP
	// request attempt is concluded, regardless of whether it concluded
	// successfully or not.
	//
	// When Client fires AfterAttempt, either the execution's response
	// field or its error field is set to a non-nil value, but never
	// both. The response body has not been read at this point.
	//
	// Note that AfterAttempt always fires on every HTTP request
	// attempt, regardless of whether it ended in error, and that it
	// runs before the retry policy is consulted for a retry decision.
	AfterAttempt
	// AfterRedirect identifies the event that occurs after Client has
	// accepted a redirect response and rewritten the plan to point at
	// the redirect target, but before the follow-up attempt is made.
	//
	// When Client fires AfterRedirect, the execution's redirect
	// counter has been incremented and its route field reflects the
	// route to the redirect target.
	AfterRedirect
	// AfterAuthChallenge identifies the event that occurs after Client
	// has received an authentication challenge from the origin server
	// or a proxy, found credentials matching the challenge, and
	// prepared an answer, but before the answered attempt is made.
	//
	// When Client fires AfterAuthChallenge, the relevant execution
	// authentication state (target or proxy) records the challenge
	// scheme and realm and is marked answered.
	AfterAuthChallenge
	// AfterPlanTimeout identifies the event that occurs after a timeout
	// on the request plan level, not just the request attempt level
	// (i.e. the context deadline on the plan's context is exceeded).
	// A plan timeout can be detected either at the same time as an
	// attempt timeout, or during the retry wait period.
	//
	// When Client fires AfterPlanTimeout, the execution's response
	// field is nil.
	//
	// Note that AfterPlanTimeout always occurs after AfterAttempt,
	// even if the plan timeout was actually detected at the same time
	// as an attempt timeout.
	AfterPlanTimeout
	// AfterExecutionEnd identifies the event that occurs after the plan
	// execution ends.
	//
	// When Client fires AfterExecutionEnd, the execution is in the
	// same state it was in after the final HTTP request attempt (and
	// last AfterAttempt event) EXCEPT that the end time is set to the
	// time the execution ended.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events typed as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"AfterRedirect",
	"AfterAuthChallenge",
	"AfterPlanTimeout",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur in an
// HTTP request plan execution by Client, in the order in which
// they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		AfterAttemptTimeout,
		AfterAttempt,
		AfterRedirect,
		AfterAuthChallenge,
		AfterPlanTimeout,
		AfterExecutionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}

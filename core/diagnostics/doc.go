// Package diagnostics carries reconciliation reports out of the engine.
//
// A report is a success flag, a tag naming the component and a free form
// message. Sinks never fail back into the caller.
package diagnostics

// Package delegates provides the stock delegates, config factories and event
// handlers that catalog descriptors can reference by name.
package delegates

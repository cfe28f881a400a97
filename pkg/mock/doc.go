// Package mock defines the core request/response model of the simulation
// engine: the Route rule type, the normalized read-only Request handed to
// handlers, and the write-side Response builder with its exactly-once
// terminal write contract.
package mock

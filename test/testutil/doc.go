// Package testutil provides shared test utilities and fixtures.
//
// This package contains common test data and assertion helpers that are used
// across package and integration tests:
//   - Slot fixtures (grids with labelled metadata)
//   - Event generators
//   - Layout invariant assertions (injective, bijective, coordinates preserved)
//
// Note: For NATS server setup, use the github.com/arloliu/slotwise/testing package.
package testutil

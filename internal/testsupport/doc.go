// Package testsupport provides shared fixtures for package tests: isolated
// configs, an opened catalog, and parsed arrivals.
package testsupport

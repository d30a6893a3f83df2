// Package fakes provides test doubles for halyard key source interfaces.
//
// This package contains fake implementations of external client interfaces
// that allow unit testing of key sources without real service dependencies.
// Fakes are manually implemented (not generated) to provide precise control
// over test behavior.
//
// Usage:
//
//	fake := fakes.NewFakeSecretsManagerClient()
//	fake.AddSecretString("prod/signing-key", "material")
//	source, _ := keysource.NewSecretsManagerSource("signing", cfg,
//	    keysource.WithSecretsManagerClient(fake))
//	// Test source methods...
package fakes

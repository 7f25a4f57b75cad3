// Package zkauth implements passwordless identity authentication on top of
// zero-knowledge identification protocols over a prime-order subgroup: a
// classical multi-round Schnorr sigma protocol, and the experimental stateless
// Richens capsule attestation scheme found in the richens subpackage.
package zkauth

// Package ballotbox implements the ballot confidentiality and
// integrity core inside the election-core context.
//
// The module owns vote sealing (AEAD, ciphertext bound to its election),
// the cast-once guard over eligibility records, result tallying with
// tie/margin computation, and the key-verified, rate-limited publish
// gate that concludes an election. It keeps business rules in
// application/domain layers and isolates infrastructure concerns behind
// ports and adapters.
package ballotbox

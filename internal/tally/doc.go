// Package tally turns vote counts into display shares.
//
// Everything here is a pure function of its input: the same records always
// produce the same shares, which is what makes repeated renders of an
// unchanged snapshot leave the display untouched.
//
// The main components are:
//
//   - [Vote]: one option's label and count
//   - [Share]: a vote with its percentage, proportional size and text
//   - [Compute]: converts an ordered slice of votes into shares
package tally

/*
Package codec converts between an attribute's external representation and its
canonical internal value, and defines equality on canonical values.

Every attribute kind carries exactly one Codec. Two external values are equal
for an attribute iff their canonical forms are Equal.
*/
package codec

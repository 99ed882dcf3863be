// Package value provides the typed scalar values that query tree leaves
// compare against.
//
// Runtime parameters arrive as strings. A leaf's declared data type names a
// parse function in a Registry; the parsed constant and the property value
// read off an entity are both Values, and comparison happens between Values.
//
// Key design constraints:
//   - Value is a sealed interface: String, Int, Decimal, Bool, Date and Null
//   - Decimals are arbitrary precision (apd), never float64
//   - Strings are NFC normalized on the way in, from both sides
//   - Int and Decimal compare numerically across kinds
package value

// Package models defines the core domain models for splitchat.
//
// # Models
//
//   - Receipt: the parsed bill, with its items and the verbatim totals reported
//     by the receipt parser
//   - Item: one priced line on a receipt, claimed by zero or more people
//   - PersonSummary: calculated share of the bill for one person
//   - Message: one entry in a session's chat transcript
//   - Image: one page of a receipt submission
//
// People are identified by name strings. There are no user accounts.
//
// # Design Principles
//
//  1. **Receipts are values**: sessions hand out deep copies (see Receipt.Clone)
//     so callers can never mutate the state a session owns
//  2. **Derived data is never stored**: PersonSummary is recomputed from the
//     Receipt on every read
//  3. **Amounts stay in the receipt's currency**: conversion is a presentation
//     concern handled by the currency package
package models

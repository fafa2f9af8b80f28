// Package textutil provides text processing utilities for filename and path
// segment sanitization.
//
// Session labels and staging segments come from camera card paths and user
// input; these helpers make them safe for filesystem use. Tokens are used in
// notification dedup keys and log fields.
package textutil
